package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/model"
)

// LoadModel compiles the model at path: a single .cue file, or a directory
// whose .cue files form one CUE instance. Directory files are read without
// a package clause, the same way single model files are written.
func LoadModel(path string) ([]model.ClassLayout, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path, Package: "_"})
		if len(instances) == 0 {
			return nil, fmt.Errorf("model %s: no CUE instances loaded", path)
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, fmt.Errorf("model %s: loading CUE files: %w", path, inst.Err)
		}
		value = ctx.BuildInstance(inst)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
		value = ctx.CompileBytes(data, cue.Filename(path))
	}

	layouts, err := CompileModel(value)
	if err != nil {
		return nil, err
	}
	return layouts, nil
}

// LoadCatalog compiles the model at path and builds its catalog.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	layouts, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(layouts)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return cat, nil
}
