package driver

import (
	"bufio"
	"github.com/klauspost/compress/zstd"
	"os"
)

// spillWriter writes a zstd compressed partial output of one task.
type spillWriter struct {
	file *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
}

func createSpill(path string) (*spillWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(file, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		file.Close()
		return nil, err
	}
	return &spillWriter{file: file, zw: zw, bw: bufio.NewWriterSize(zw, 1<<16)}, nil
}

func (s *spillWriter) Write(p []byte) (int, error) {
	return s.bw.Write(p)
}

func (s *spillWriter) Close() error {
	var err error
	if err = s.bw.Flush(); err != nil {
		s.zw.Close()
		s.file.Close()
		return err
	}
	if err = s.zw.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// readSpill calls fn for every line of a spill file.
func readSpill(path string, fn func(line string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	zr, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return err
	}
	defer zr.Close()
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)
	for scanner.Scan() {
		if err = fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
