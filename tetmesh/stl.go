package tetmesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is one STL facet; the stored normal is ignored
type Triangle [3]r3.Vec

// ParseSTL reads an ASCII or binary STL file
func ParseSTL(filename string) ([]Triangle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Read first few bytes to determine format
	header := make([]byte, 6)
	n, err := file.Read(header)
	if err != nil {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	// Binary files may also start with "solid" in their free-form header, so
	// confirm the size before trusting the ASCII form
	if n >= 5 && strings.HasPrefix(string(header[:5]), "solid") && !looksBinary(file) {
		return parseASCIISTL(file)
	}
	return parseBinarySTL(file)
}

func looksBinary(file *os.File) bool {
	info, err := file.Stat()
	if err != nil || info.Size() < 84 {
		return false
	}
	var count uint32
	buf := make([]byte, 4)
	if _, err := file.ReadAt(buf, 80); err != nil {
		return false
	}
	count = binary.LittleEndian.Uint32(buf)
	return info.Size() == 84+50*int64(count)
}

func parseASCIISTL(reader io.Reader) ([]Triangle, error) {
	scanner := bufio.NewScanner(reader)

	var (
		tris     []Triangle
		vertices []r3.Vec
		line     int
	)
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var c [3]float64
			for i := range c {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				c[i] = v
			}
			vertices = append(vertices, r3.Vec{X: c[0], Y: c[1], Z: c[2]})

		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices", line, len(vertices))
			}
			tris = append(tris, Triangle{vertices[0], vertices[1], vertices[2]})
			vertices = vertices[:0]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return tris, nil
}

func parseBinarySTL(reader io.Reader) ([]Triangle, error) {
	// Skip 80-byte header
	header := make([]byte, 80)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}

	// normal, three vertices, attribute byte count
	var facet struct {
		Normal    [3]float32
		V         [3][3]float32
		Attribute uint16
	}
	tris := make([]Triangle, 0, triangleCount)
	for i := uint32(0); i < triangleCount; i++ {
		if err := binary.Read(reader, binary.LittleEndian, &facet); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		var tri Triangle
		for a, v := range facet.V {
			tri[a] = r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		}
		tris = append(tris, tri)
	}
	return tris, nil
}
