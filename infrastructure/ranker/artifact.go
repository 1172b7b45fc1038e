package ranker

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/helixml/careerpath/domain/errs"
)

// CurrentDir names the artifact directory that always wins over versions.
const CurrentDir = "current"

// LoadResult is the outcome of loading weights. Skipped lists model
// parameters left at initialization; Unexpected lists saved parameters the
// model has no slot for.
type LoadResult struct {
	Model      *MLP
	Skipped    []string
	Unexpected []string
}

// Partial reports whether any parameter did not load cleanly.
func (r LoadResult) Partial() bool {
	return len(r.Skipped) > 0 || len(r.Unexpected) > 0
}

// PartialLoadWarning reports a weights file that only partly matched the
// model. It is logged by default and returned as an error in strict mode.
type PartialLoadWarning struct {
	Path       string
	Skipped    []string
	Unexpected []string
}

func (w *PartialLoadWarning) Error() string {
	return fmt.Sprintf("partial ranker load from %s: skipped %s; unexpected %s",
		w.Path, listOrNone(w.Skipped), listOrNone(w.Unexpected))
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Load builds an MLP for inputDim seeded with seed and copies every
// compatible parameter from the weights file at path.
func Load(path string, inputDim int, seed uint64) (LoadResult, error) {
	sd, err := ReadStateDict(path)
	if err != nil {
		return LoadResult{}, errs.ModelUnavailable("ranker", err)
	}
	model := NewMLP(inputDim, seed)
	skipped, unexpected := model.LoadStateDict(sd)
	return LoadResult{Model: model, Skipped: skipped, Unexpected: unexpected}, nil
}

// Artifact is everything the ranker reads from one artifact directory.
type Artifact struct {
	Dir      string
	Version  string
	Config   ArtifactConfig
	Model    *MLP
	Users    map[int64]UserFeatures
	Items    map[string]ItemFeatures
	Warning  *PartialLoadWarning
	LoadedAt time.Time
}

// LoadArtifact reads weights and feature tables from dir for embedding
// dimension dim. Feature tables are optional.
func LoadArtifact(dir string, dim int, seed uint64) (*Artifact, error) {
	cfg, err := ReadArtifactConfig(dir)
	if err != nil {
		return nil, errs.ModelUnavailable("ranker", err)
	}

	modelPath := resolve(dir, cfg.ModelFile)
	result, err := Load(modelPath, InputDim(dim), seed)
	if err != nil {
		return nil, err
	}

	users, err := readUserFeatures(resolve(dir, cfg.UserFeaturesFile), dim)
	if err != nil {
		return nil, errs.ModelUnavailable("ranker", err)
	}
	items, err := readItemFeatures(resolve(dir, cfg.ItemFeaturesFile), dim)
	if err != nil {
		return nil, errs.ModelUnavailable("ranker", err)
	}

	a := &Artifact{
		Dir:      dir,
		Version:  filepath.Base(dir),
		Config:   cfg,
		Model:    result.Model,
		Users:    users,
		Items:    items,
		LoadedAt: time.Now().UTC(),
	}
	if result.Partial() {
		a.Warning = &PartialLoadWarning{Path: modelPath, Skipped: result.Skipped, Unexpected: result.Unexpected}
	}
	return a, nil
}

// ResolveArtifactDir picks the artifact directory under root: "current"
// when present, else the highest v<N> directory, else root itself.
func ResolveArtifactDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errs.ModelUnavailable("ranker", fmt.Errorf("artifact root %s does not exist", root))
	}
	if err != nil {
		return "", fmt.Errorf("read artifact root: %w", err)
	}

	var versions []string
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(filepath.Join(root, e.Name()))
			isDir = statErr == nil && info.IsDir()
		}
		if !isDir {
			continue
		}
		if e.Name() == CurrentDir {
			return filepath.Join(root, CurrentDir), nil
		}
		if _, ok := versionNumber(e.Name()); ok {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return root, nil
	}

	latest := slices.MaxFunc(versions, func(a, b string) int {
		na, _ := versionNumber(a)
		nb, _ := versionNumber(b)
		return cmp.Compare(na, nb)
	})
	return filepath.Join(root, latest), nil
}

func versionNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "v")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil
}

// InitArtifact writes freshly initialized weights for embedding dimension
// dim into dir. An existing weights file is kept unless overwrite is set.
func InitArtifact(dir string, dim int, seed uint64, overwrite bool) (string, error) {
	if dim < 1 {
		return "", fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(dir, DefaultModelFile)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", fmt.Errorf("%s already exists", path)
	}
	if err := WriteStateDict(path, NewMLP(InputDim(dim), seed).StateDict()); err != nil {
		return "", err
	}
	return path, nil
}

// ArtifactDim reads the embedding dimension the newest artifact under root
// was trained for, from the width of its first layer.
func ArtifactDim(root string) (int, error) {
	dir, err := ResolveArtifactDir(root)
	if err != nil {
		return 0, err
	}
	cfg, err := ReadArtifactConfig(dir)
	if err != nil {
		return 0, errs.ModelUnavailable("ranker", err)
	}
	sd, err := ReadStateDict(resolve(dir, cfg.ModelFile))
	if err != nil {
		return 0, errs.ModelUnavailable("ranker", err)
	}
	p, ok := sd.Params["fc1.weight"]
	if !ok || len(p.Shape) != 2 {
		return 0, errs.ModelUnavailable("ranker", fmt.Errorf("%s has no 2-d fc1.weight", dir))
	}
	width := p.Shape[1] - InputDim(0)
	if width <= 0 || width%2 != 0 {
		return 0, errs.ModelUnavailable("ranker", fmt.Errorf("fc1.weight width %d is not 2D+%d", p.Shape[1], InputDim(0)))
	}
	return width / 2, nil
}
