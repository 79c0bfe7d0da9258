// Package updater keeps installed extensions current. It fetches each
// extension's latest-release descriptor, compares versions with semantic
// version ordering, downloads the asset published for this platform, and
// hands it to the checksum-verifying installer. Batches run on a bounded
// worker pool, isolate per-extension failures, and notify observers once
// when every task has finished.
package updater
