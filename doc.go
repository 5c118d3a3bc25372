// Package region reads game region save files: indexed-storage containers
// mapping fixed chunk slots to zstd-compressed chunk payloads.
//
// A Container is opened from a <x>.<z>.region.bin file (or any ByteSource
// plus region coordinates). Individual blobs are read and decompressed on
// demand; Chunks iterates every populated slot lazily, assembling each
// payload into a [chunk.Chunk] via the codec and chunk packages.
//
// # Quick start
//
//	c, err := region.Open("chunks/-2.-3.region.bin")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	for ck := range c.Chunks() {
//	    fmt.Println(ck.X, ck.Z, len(ck.Sections))
//	}
//
// Container-level failures (bad magic, unsupported version) abort Open.
// Per-slot failures during iteration are logged, counted in Stats, and
// skipped: one corrupt chunk never fails the whole region.
package region
