package pipeline

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/autotag/pkg/errors"
)

// WriteResult writes res as indented JSON.
func WriteResult(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// ReadResult reads a result written by WriteResult.
func ReadResult(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode result")
	}
	return &res, nil
}

// ExportResult writes res to path.
func ExportResult(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := WriteResult(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportResult reads a result from path.
func ImportResult(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadResult(f)
}
