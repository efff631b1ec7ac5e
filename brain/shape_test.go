package brain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func testShapeGenerator(t *testing.T) *ShapeGenerator {
	return NewShapeGenerator(nil, &ShapeGeneratorSettings{
		CacheDir: t.TempDir(),
		// coarse tessellation keeps the tests fast
		MeshCells: 16,
		BaseUrl:   "http://localhost:8766",
	})
}

func TestGeneratePly(t *testing.T) {
	generator := testShapeGenerator(t)

	url, warned, err := generator.Generate(
		context.Background(),
		"phone prototype",
		"rounded_slab",
		Dimensions{},
	)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, warned)
	assert.Equal(t, "http://localhost:8766/phone_prototype.ply", url)

	data, err := os.ReadFile(filepath.Join(generator.settings.CacheDir, "phone_prototype.ply"))
	assert.Equal(t, nil, err)
	assert.Equal(t, true, strings.HasPrefix(string(data), "ply\nformat ascii 1.0\n"))
	assert.Equal(t, true, strings.Contains(string(data), "end_header\n"))
}

func TestGenerateAllPrimitives(t *testing.T) {
	generator := testShapeGenerator(t)

	for _, primitive := range []string{
		"rounded_box", "rounded_slab", "cylinder", "sphere", "capsule", "torus",
	} {
		url, warned, err := generator.Generate(
			context.Background(),
			"test "+primitive,
			primitive,
			Dimensions{},
		)
		assert.Equal(t, nil, err)
		assert.Equal(t, false, warned)
		assert.NotEqual(t, "", url)
	}
}

func TestGenerateUnknownPrimitiveFallsBack(t *testing.T) {
	generator := testShapeGenerator(t)

	_, warned, err := generator.Generate(
		context.Background(),
		"known",
		"rounded_box",
		Dimensions{},
	)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, warned)

	_, warned, err = generator.Generate(
		context.Background(),
		"unknown",
		"not_a_real_primitive",
		Dimensions{},
	)
	assert.Equal(t, nil, err)
	// the fallback is reported, not failed
	assert.Equal(t, true, warned)

	// the fallback produces the same geometry as the default primitive
	known, err := os.ReadFile(filepath.Join(generator.settings.CacheDir, "known.ply"))
	assert.Equal(t, nil, err)
	unknown, err := os.ReadFile(filepath.Join(generator.settings.CacheDir, "unknown.ply"))
	assert.Equal(t, nil, err)
	assert.Equal(t, string(known), string(unknown))
}

func TestGenerateCacheHit(t *testing.T) {
	generator := testShapeGenerator(t)

	url, _, err := generator.Generate(context.Background(), "bottle", "cylinder", Dimensions{})
	assert.Equal(t, nil, err)

	path := filepath.Join(generator.settings.CacheDir, "bottle.ply")
	info, err := os.Stat(path)
	assert.Equal(t, nil, err)

	// the second call is served from the cache file, no regeneration
	url2, warned, err := generator.Generate(context.Background(), "bottle", "cylinder", Dimensions{})
	assert.Equal(t, nil, err)
	assert.Equal(t, false, warned)
	assert.Equal(t, url, url2)

	info2, err := os.Stat(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())
	assert.Equal(t, info.Size(), info2.Size())
}

func TestGenerateCancelled(t *testing.T) {
	generator := testShapeGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := generator.Generate(ctx, "cancelled", "sphere", Dimensions{})
	assert.NotEqual(t, nil, err)

	_, err = os.Stat(filepath.Join(generator.settings.CacheDir, "cancelled.ply"))
	assert.Equal(t, true, os.IsNotExist(err))
}

func TestGenerateUsesDimensions(t *testing.T) {
	generator := testShapeGenerator(t)

	_, _, err := generator.Generate(context.Background(), "small", "sphere", Dimensions{
		Radius: ptr(0.2),
	})
	assert.Equal(t, nil, err)
	_, _, err = generator.Generate(context.Background(), "large", "sphere", Dimensions{
		Radius: ptr(0.8),
	})
	assert.Equal(t, nil, err)

	small, _ := os.ReadFile(filepath.Join(generator.settings.CacheDir, "small.ply"))
	large, _ := os.ReadFile(filepath.Join(generator.settings.CacheDir, "large.ply"))
	assert.NotEqual(t, string(small), string(large))
}

func TestPromptKey(t *testing.T) {
	assert.Equal(t, "phone_prototype", promptKey("phone prototype"))
	assert.Equal(t, "phone_prototype", promptKey("Phone Prototype"))
	assert.Equal(t, "a_b__c__1", promptKey(`a/b "c" 1`))

	long := strings.Repeat("x", 100)
	assert.Equal(t, 60, len(promptKey(long)))
}
