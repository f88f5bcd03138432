package rootio

import (
	"fmt"
	"path"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// openTree opens file and resolves the tree at name, which may include
// directories ("ntupler/ElectronTree").
func openTree(file, name string) (*riofs.File, rtree.Tree, error) {
	f, err := groot.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", file, err)
	}
	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s in %s: %v", ErrTreeNotFound, name, file, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s in %s is a %T", ErrTreeNotFound, name, file, obj)
	}
	return f, tree, nil
}

// mkdirFor creates the directories of a slash-separated object name and
// returns the directory that should hold the object and its base name.
func mkdirFor(f *riofs.File, name string) (riofs.Directory, string, error) {
	dirName, base := path.Split(name)
	dirName = strings.Trim(dirName, "/")
	if dirName == "" {
		return f, base, nil
	}
	dir, err := riofs.Dir(f).Mkdir(dirName)
	if err != nil {
		return nil, "", fmt.Errorf("create directory %s: %w", dirName, err)
	}
	return dir, base, nil
}

// Entries returns the number of entries of the tree at name in file.
func Entries(file, name string) (int64, error) {
	f, tree, err := openTree(file, name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return tree.Entries(), nil
}

// readRange returns the [0, end) entry range honouring maxEvents.
func readRange(entries, maxEvents int64) int64 {
	if maxEvents > 0 && maxEvents < entries {
		return maxEvents
	}
	return entries
}
