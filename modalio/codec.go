package modalio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

var byteOrder = binary.LittleEndian

// Encode writes rec as one little-endian block, matrices row-major and no
// length headers
func Encode(w io.Writer, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	buf := bytes.NewBuffer(make([]byte, 0, rec.Dims().ByteSize()))

	r, _ := rec.SU.Dims()
	su := make([][]float64, r)
	for i := range su {
		su[i] = mat.Row(nil, i, rec.SU)
	}

	fields := []any{rec.SV, rec.SF, rec.Mi, rec.Mass, rec.Inertia, rec.COM, rec.UTMg, rec.Ki}
	for _, row := range su {
		fields = append(fields, row)
	}
	for _, f := range fields {
		if err := binary.Write(buf, byteOrder, f); err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Decode reads a record of the given extents, rejecting short or long input
func Decode(r io.Reader, d Dims) (*Record, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	nS, nF, k := d.NumSurfaceVertices, d.NumFaces, d.Modes
	rec := &Record{
		SV:   make([][3]float64, nS),
		SF:   make([][3]int32, nF),
		Mi:   make([]float64, k),
		UTMg: make([]float64, k),
		Ki:   make([]float64, k),
	}
	su := make([]float64, 3*nS*k)

	fields := []any{rec.SV, rec.SF, rec.Mi, &rec.Mass, &rec.Inertia, &rec.COM, rec.UTMg, rec.Ki, su}
	for _, f := range fields {
		if err := binary.Read(r, byteOrder, f); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
	}
	var extra [1]byte
	if n, err := r.Read(extra[:]); n > 0 || (err != nil && !errors.Is(err, io.EOF)) {
		return nil, fmt.Errorf("record is longer than %d bytes for n_S=%d n_F=%d k=%d",
			d.ByteSize(), nS, nF, k)
	}
	rec.SU = mat.NewDense(3*nS, k, su)
	return rec, nil
}

// WriteFile encodes rec into path atomically: the bytes go to a temporary
// file in the same directory that is renamed over path once complete
func WriteFile(path string, rec *Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

// ReadFile decodes the record stored at path
func ReadFile(path string, d Dims) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, d)
}

// WriteOutput stores the record at path and its metadata sidecar at
// MetaPath(path). Both are staged before either replaces a previous run, and
// the sidecar is moved into place first so a failure never leaves a new
// record next to stale extents.
func WriteOutput(path string, rec *Record, m Meta) error {
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return err
	}
	meta, err := encodeMeta(m)
	if err != nil {
		return err
	}

	recTmp, err := stage(path, buf.Bytes())
	if err != nil {
		return err
	}
	metaPath := MetaPath(path)
	metaTmp, err := stage(metaPath, meta)
	if err != nil {
		os.Remove(recTmp)
		return err
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(recTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("renaming into %s: %w", metaPath, err)
	}
	if err := os.Rename(recTmp, path); err != nil {
		os.Remove(recTmp)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := stage(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// stage writes data to a synced temporary file next to path and returns its name
func stage(path string, data []byte) (name string, err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("setting permissions on %s: %w", tmp.Name(), err)
	}
	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), nil
}
