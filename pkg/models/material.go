package models

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
)

// Material describes surface appearance. OBJ materials fill the Phong
// fields; glTF materials fill BaseColor, Metallic and Roughness.
type Material struct {
	Name      string
	Ambient   [3]float64 // Ka
	BaseColor [4]float64 // Kd plus opacity, RGBA in 0-1 range
	Specular  [3]float64 // Ks
	Emissive  [3]float64 // Ke
	Shininess float64    // Ns
	Illum     int
	Metallic  float64 // 0 = dielectric, 1 = metal
	Roughness float64 // 0 = smooth, 1 = rough

	DiffuseMap string      // map_Kd file name, relative to the library
	BaseMap    image.Image // Decoded diffuse texture
	HasTexture bool
}

// NewMaterial returns a white, opaque material.
func NewMaterial(name string) Material {
	return Material{
		Name:      name,
		BaseColor: [4]float64{1, 1, 1, 1},
		Shininess: 30,
		Roughness: 1,
	}
}

// MaterialLibrary is the parsed content of an MTL file.
type MaterialLibrary struct {
	materials map[string]*Material
	order     []string
}

// NewMaterialLibrary returns an empty library.
func NewMaterialLibrary() *MaterialLibrary {
	return &MaterialLibrary{materials: make(map[string]*Material)}
}

// Get returns the named material.
func (l *MaterialLibrary) Get(name string) (*Material, bool) {
	if l == nil {
		return nil, false
	}
	m, ok := l.materials[name]
	return m, ok
}

// Names returns material names in declaration order.
func (l *MaterialLibrary) Names() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.order...)
}

// Len returns the number of materials.
func (l *MaterialLibrary) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Add inserts or replaces a material.
func (l *MaterialLibrary) Add(m Material) {
	if _, ok := l.materials[m.Name]; !ok {
		l.order = append(l.order, m.Name)
	}
	l.materials[m.Name] = &m
}

// TextureOpener returns the bytes of a texture referenced by a library.
type TextureOpener func(name string) (io.ReadCloser, error)

// Preload decodes the diffuse texture of every material that references
// one. Materials whose texture cannot be opened or decoded keep their flat
// color; the failures are returned joined.
func (l *MaterialLibrary) Preload(open TextureOpener) error {
	if l == nil {
		return nil
	}
	var errs []error
	for _, name := range l.order {
		m := l.materials[name]
		if m.DiffuseMap == "" || m.HasTexture {
			continue
		}
		img, err := decodeTexture(open, m.DiffuseMap)
		if err != nil {
			errs = append(errs, fmt.Errorf("material %q: %w", name, err))
			continue
		}
		m.BaseMap = img
		m.HasTexture = true
	}
	return errors.Join(errs...)
}

func decodeTexture(open TextureOpener, name string) (image.Image, error) {
	rc, err := open(name)
	if err != nil {
		return nil, fmt.Errorf("open texture %s: %w", name, err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", name, err)
	}
	return img, nil
}

// ParseMTL parses a Wavefront material library.
// Unknown statements are ignored.
func ParseMTL(r io.Reader) (*MaterialLibrary, error) {
	lib := NewMaterialLibrary()
	var cur *Material

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		key = strings.ToLower(key)

		if key == "newmtl" {
			if cur != nil {
				lib.Add(*cur)
			}
			m := NewMaterial(rest)
			cur = &m
			continue
		}
		if cur == nil {
			// Statements before the first newmtl have nothing to apply to.
			continue
		}

		var err error
		switch key {
		case "ka":
			cur.Ambient, err = parseRGB(rest)
		case "kd":
			var kd [3]float64
			kd, err = parseRGB(rest)
			cur.BaseColor[0], cur.BaseColor[1], cur.BaseColor[2] = kd[0], kd[1], kd[2]
		case "ks":
			cur.Specular, err = parseRGB(rest)
		case "ke":
			cur.Emissive, err = parseRGB(rest)
		case "ns":
			cur.Shininess, err = strconv.ParseFloat(rest, 64)
		case "d":
			cur.BaseColor[3], err = strconv.ParseFloat(rest, 64)
		case "tr":
			var tr float64
			tr, err = strconv.ParseFloat(rest, 64)
			cur.BaseColor[3] = 1 - tr
		case "illum":
			cur.Illum, err = strconv.Atoi(rest)
		case "map_kd":
			cur.DiffuseMap = textureFileName(rest)
		}
		if err != nil {
			return nil, fmt.Errorf("mtl line %d: %s: %w", lineNo, key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read mtl: %w", err)
	}
	if cur != nil {
		lib.Add(*cur)
	}
	return lib, nil
}

// parseRGB reads one to three floats; a single value is used for all
// channels.
func parseRGB(s string) ([3]float64, error) {
	var out [3]float64
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return out, errors.New("missing color")
	}
	if fields[0] == "spectral" || fields[0] == "xyz" {
		return out, fmt.Errorf("unsupported color form %q", fields[0])
	}
	for i := range out {
		f := fields[min(i, len(fields)-1)]
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// textureOptionArgs is the number of arguments each map_* option takes.
var textureOptionArgs = map[string]int{
	"-blendu": 1, "-blendv": 1, "-boost": 1, "-cc": 1, "-clamp": 1,
	"-imfchan": 1, "-texres": 1, "-bm": 1, "-type": 1,
	"-mm": 2,
	"-o":  3, "-s": 3, "-t": 3,
}

// textureFileName strips map statement options and returns the file name.
func textureFileName(s string) string {
	fields := strings.Fields(s)
	i := 0
	for i < len(fields) {
		n, ok := textureOptionArgs[fields[i]]
		if !ok {
			break
		}
		i++
		// -o/-s/-t take up to three numbers.
		for j := 0; j < n && i < len(fields); j++ {
			if _, err := strconv.ParseFloat(fields[i], 64); err != nil && n == 3 {
				break
			}
			i++
		}
	}
	return strings.Join(fields[i:], " ")
}
