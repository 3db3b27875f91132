package points

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/wetwoodland/webmap/internal/fsutil"
)

// Record sizes of the packed binary format: little-endian float32 lon, lat,
// value and, with classes, the class.
const (
	RecordSize          = 12
	RecordSizeWithClass = 16
)

// OutputPath rewrites a .json path to .bin when binary output is requested.
func OutputPath(path string, binaryOut bool) string {
	if binaryOut && strings.EqualFold(filepath.Ext(path), ".json") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".bin"
	}
	return path
}

// MarshalJSON encodes the set as a compact array of [lon, lat, value] rows,
// with the class appended when the set carries classes.
func (s *Set) MarshalJSON() ([]byte, error) {
	rows := make([][]float64, len(s.Samples))
	for i, p := range s.Samples {
		if s.WithClass {
			rows[i] = []float64{p.Lon, p.Lat, p.Value, float64(p.Class)}
		} else {
			rows[i] = []float64{p.Lon, p.Lat, p.Value}
		}
	}
	return json.Marshal(rows)
}

// MarshalBinary packs the set as float32 records.
func (s *Set) MarshalBinary() ([]byte, error) {
	size := RecordSize
	if s.WithClass {
		size = RecordSizeWithClass
	}
	var buf bytes.Buffer
	buf.Grow(len(s.Samples) * size)
	rec := make([]float32, 0, 4)
	for _, p := range s.Samples {
		rec = append(rec[:0], float32(p.Lon), float32(p.Lat), float32(p.Value))
		if s.WithClass {
			rec = append(rec, float32(p.Class))
		}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeBinary unpacks float32 records. withClass selects the 16-byte layout,
// whose fourth field must be NoClass or a grade bucket. That check is what
// rejects a 12-byte file whose point count is a multiple of four.
func DecodeBinary(data []byte, withClass bool) (*Set, error) {
	size := RecordSize
	if withClass {
		size = RecordSizeWithClass
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("points data is %d bytes, not a multiple of %d", len(data), size)
	}
	n := len(data) / size
	set := &Set{Samples: make([]Sample, n), WithClass: withClass}
	f := func(off int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	}
	for i := 0; i < n; i++ {
		off := i * size
		s := Sample{Lon: f(off), Lat: f(off + 4), Value: f(off + 8), Class: NoClass}
		if withClass {
			c := f(off + 12)
			if c != math.Trunc(c) || c < NoClass || c > ClassGrade45 {
				return nil, fmt.Errorf("record %d: class %v is not one of -1, 0, 1, 2", i, c)
			}
			s.Class = int(c)
		}
		set.Samples[i] = s
	}
	return set, nil
}

// ReadBinary loads a packed points file.
func ReadBinary(fsys fsutil.FileSystem, path string, withClass bool) (*Set, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read points %s: %w", path, err)
	}
	set, err := DecodeBinary(data, withClass)
	if err != nil {
		return nil, fmt.Errorf("decode points %s: %w", path, err)
	}
	return set, nil
}

// Write encodes the set as JSON or packed binary and writes it atomically.
// It returns the path actually written.
func Write(fsys fsutil.FileSystem, path string, s *Set, binaryOut bool) (string, error) {
	path = OutputPath(path, binaryOut)
	var (
		data []byte
		err  error
	)
	if binaryOut {
		data, err = s.MarshalBinary()
	} else {
		data, err = s.MarshalJSON()
	}
	if err != nil {
		return "", fmt.Errorf("encode points: %w", err)
	}
	if err := fsutil.WriteFileAtomic(fsys, path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
