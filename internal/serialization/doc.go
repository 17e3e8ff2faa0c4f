// Package serialization implements the .model file format.
//
//	Format Structure:
//	  0x00 [4 bytes: Magic "CKDM"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Data Size (uint64 LE), as stored]
//	  0x20 [32 bytes: SHA-256 of the uncompressed tensor data]
//	  0x40 [Header: JSON]
//	       [Padding to 64 bytes]
//	       [Tensor data: float64 LE, optionally xz-compressed]
//
// The JSON header carries the tensor table, the layer topology, the
// preprocessing state (feature order, scaler ranges, vocabularies) and a
// training summary, so a file is self-describing.
//
// Example usage:
//
//	// Save
//	f, err := serialization.Create("ckd.model")
//	err = f.Write(stateDict, header, serialization.WriteOptions{Compress: true})
//	err = f.Close()
//
//	// Load
//	m, err := serialization.Open("ckd.model", serialization.ReaderOptions{})
//	weights := m.StateDict["layers.0.weight"]
package serialization
