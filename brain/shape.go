package brain

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultPrimitive is what an unrecognized primitive falls back to.
const DefaultPrimitive = "rounded_box"

type ShapeGeneratorSettings struct {
	CacheDir string
	// marching cubes tessellation resolution
	MeshCells int
	// url prefix the mesh http server serves CacheDir under
	BaseUrl string
}

func DefaultShapeGeneratorSettings() *ShapeGeneratorSettings {
	return &ShapeGeneratorSettings{
		CacheDir:  filepath.Join(os.TempDir(), "voice_mesh_gen"),
		MeshCells: 128,
		BaseUrl:   "http://localhost:8766",
	}
}

// ShapeGenerator produces renderable meshes from primitive + dimension
// parameters: SDF solid, marching cubes, ASCII PLY in a prompt-keyed
// cache directory. Implements MeshGenerator.
type ShapeGenerator struct {
	settings *ShapeGeneratorSettings
	// optional index over the cache dir, may be nil
	cache *MeshCache
}

func NewShapeGeneratorWithDefaults() *ShapeGenerator {
	return NewShapeGenerator(nil, DefaultShapeGeneratorSettings())
}

func NewShapeGenerator(cache *MeshCache, settings *ShapeGeneratorSettings) *ShapeGenerator {
	return &ShapeGenerator{
		settings: settings,
		cache:    cache,
	}
}

// Generate builds the mesh for (primitive, dimensions) and returns its
// url. An unrecognized primitive falls back to the default primitive
// and reports warned=true instead of failing. A cache hit returns
// instantly. Cancelling ctx abandons the job.
func (self *ShapeGenerator) Generate(
	ctx context.Context,
	prompt string,
	primitive string,
	dimensions Dimensions,
) (string, bool, error) {
	key := promptKey(prompt)
	file := key + ".ply"
	path := filepath.Join(self.settings.CacheDir, file)
	url := self.settings.BaseUrl + "/" + file

	if _, err := os.Stat(path); err == nil {
		// cache hit
		if self.cache != nil {
			self.cache.Touch(ctx, key)
		}
		glog.V(1).Infof("[gen]cache hit %q\n", key)
		return url, false, nil
	}

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	solid, warned, err := buildSolid(primitive, dimensions)
	if err != nil {
		return "", warned, err
	}

	if err := ctx.Err(); err != nil {
		return "", warned, err
	}

	renderer := render.NewMarchingCubesUniform(self.settings.MeshCells)
	triangles := render.ToTriangles(solid, renderer)

	if err := ctx.Err(); err != nil {
		return "", warned, err
	}

	if err := os.MkdirAll(self.settings.CacheDir, 0755); err != nil {
		return "", warned, err
	}
	if err := writePly(path, triangles); err != nil {
		return "", warned, err
	}

	if self.cache != nil {
		if err := self.cache.Record(ctx, key, primitive, file); err != nil {
			glog.Infof("[gen]cache record error = %s\n", err)
		}
	}

	return url, warned, nil
}

// promptKey normalizes a prompt to a safe cache file stem.
func promptKey(prompt string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(prompt) {
		if 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	key := b.String()
	if 60 < len(key) {
		key = key[:60]
	}
	return key
}

func buildSolid(primitive string, dimensions Dimensions) (sdf.SDF3, bool, error) {
	width := dimensionOr(dimensions.Width, 0.5)
	height := dimensionOr(dimensions.Height, 1.0)
	depth := dimensionOr(dimensions.Depth, 0.2)
	radius := dimensionOr(dimensions.Radius, 0.05)
	thickness := dimensionOr(dimensions.Thickness, 0.08)

	warned := false
	switch primitive {
	case "rounded_box", "rounded_slab":
	case "cylinder", "sphere", "capsule", "torus":
	default:
		warned = true
		primitive = DefaultPrimitive
	}

	var solid sdf.SDF3
	var err error
	switch primitive {
	case "rounded_box":
		solid, err = roundedBox(width, depth, height, radius)
	case "rounded_slab":
		solid, err = roundedBox(width, maxFloat(thickness, 0.08), height, radius)
	case "cylinder":
		solid, err = sdf.Cylinder3D(height, maxFloat(radius, 0.1), 0)
	case "sphere":
		solid, err = sdf.Sphere3D(maxFloat(radius, 0.1))
	case "capsule":
		// a cylinder whose edge round equals its radius is a capsule
		r := maxFloat(radius, 0.1)
		round := minFloat(r, height/2*0.99)
		solid, err = sdf.Cylinder3D(height, r, round)
	case "torus":
		solid, err = torus(maxFloat(radius, 0.3), maxFloat(thickness, 0.05))
	}
	if err != nil {
		return nil, warned, fmt.Errorf("build %s: %w", primitive, err)
	}
	return solid, warned, nil
}

func roundedBox(x float64, y float64, z float64, round float64) (sdf.SDF3, error) {
	// the round must stay below the half extent of the smallest side
	maxRound := minFloat(minFloat(x, y), z) / 2 * 0.99
	return sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, minFloat(round, maxRound))
}

func torus(major float64, minor float64) (sdf.SDF3, error) {
	circle, err := sdf.Circle2D(minor)
	if err != nil {
		return nil, err
	}
	circle = sdf.Transform2D(circle, sdf.Translate2d(v2.Vec{X: major, Y: 0}))
	return sdf.Revolve3D(circle)
}

func dimensionOr(value *float64, def float64) float64 {
	if value == nil {
		return def
	}
	return *value
}

func minFloat(a float64, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a float64, b float64) float64 {
	if b < a {
		return a
	}
	return b
}

// writePly writes an ASCII PLY with per-vertex normals, the format the
// renderer's mesh loader consumes.
func writePly(path string, triangles []*sdf.Triangle3) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	vertexCount := 3 * len(triangles)
	fmt.Fprintf(w, "ply\n")
	fmt.Fprintf(w, "format ascii 1.0\n")
	fmt.Fprintf(w, "element vertex %d\n", vertexCount)
	fmt.Fprintf(w, "property float x\n")
	fmt.Fprintf(w, "property float y\n")
	fmt.Fprintf(w, "property float z\n")
	fmt.Fprintf(w, "property float nx\n")
	fmt.Fprintf(w, "property float ny\n")
	fmt.Fprintf(w, "property float nz\n")
	fmt.Fprintf(w, "element face %d\n", len(triangles))
	fmt.Fprintf(w, "property list uchar int vertex_indices\n")
	fmt.Fprintf(w, "end_header\n")

	for _, triangle := range triangles {
		n := triangle.Normal()
		for j := 0; j < 3; j += 1 {
			v := triangle[j]
			fmt.Fprintf(w, "%g %g %g %g %g %g\n", v.X, v.Y, v.Z, n.X, n.Y, n.Z)
		}
	}
	for i := 0; i < len(triangles); i += 1 {
		fmt.Fprintf(w, "3 %d %d %d\n", 3*i, 3*i+1, 3*i+2)
	}

	return w.Flush()
}
