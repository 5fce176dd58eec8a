package file

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

const defaultBlockSize = 4096

// CopyRegularFileDisk copies src to dst block by block. A whole block of
// zero bytes becomes a seek in dst instead of a write, so a sparse source
// stays sparse in the copy; a final seeked-but-never-written tail is
// materialized as a single trailing zero byte then truncated back down to
// the real file size, which is enough for the filesystem to record the
// hole without ever writing the zeros out. defaultBlockSize stands in for
// the destination filesystem's block size, which this engine never
// queries.
func CopyRegularFileDisk(src, dst string) error {
	return copyRegularFileDiskBlocked(src, dst, defaultBlockSize)
}

func copyRegularFileDiskBlocked(src, dst string, blockSize int) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("file: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("file: create %s: %w", dst, err)
	}
	defer out.Close()

	buf := make([]byte, blockSize)
	zero := make([]byte, blockSize)

	var total int64
	lastWasHole := false

	for {
		n, readErr := io.ReadFull(in, buf)
		if n > 0 {
			chunk := buf[:n]
			// Only a full block of zeros becomes a hole: a short final
			// block never crosses the block boundary a hole requires.
			if n == blockSize && bytes.Equal(chunk, zero) {
				if _, err := out.Seek(int64(n), io.SeekCurrent); err != nil {
					return fmt.Errorf("file: seek hole in %s: %w", dst, err)
				}
				lastWasHole = true
			} else {
				if _, err := out.Write(chunk); err != nil {
					return fmt.Errorf("file: write %s: %w", dst, err)
				}
				lastWasHole = false
			}
			total += int64(n)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("file: read %s: %w", src, readErr)
		}
	}

	if lastWasHole {
		if _, err := out.Write([]byte{0}); err != nil {
			return fmt.Errorf("file: write sparse tail byte in %s: %w", dst, err)
		}
		if err := out.Truncate(total); err != nil {
			return fmt.Errorf("file: truncate %s: %w", dst, err)
		}
	}

	return nil
}
