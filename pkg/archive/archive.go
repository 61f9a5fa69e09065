package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/schollz/progressbar/v3"
	"riddle/pkg/logger"
	"riddle/pkg/storage"
)

// archiveMode is the permission of a newly created archive
const archiveMode fs.FileMode = 0644

// Options controls a Compress call
type Options struct {
	// Progress receives a byte-based progress bar; nil disables it
	Progress io.Writer
	// Level is the deflate level; 0 selects flate.BestCompression
	Level  int
	Logger logger.Logger
}

// Result describes what Compress wrote
type Result struct {
	Added    int
	Replaced int
	Kept     int
	Bytes    int64
}

type sourceFile struct {
	path string
	info fs.FileInfo
}

// Compress adds every regular file below srcDir to the archive at zipPath.
// Entries are named by file base name. If zipPath already exists its entries
// are preserved, except those replaced by a file of the same name.
func Compress(srcDir, zipPath string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	level := opts.Level
	if level == 0 {
		level = flate.BestCompression
	}

	sources, total, err := collect(srcDir)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(zipPath), ".riddle-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpName := tmp.Name()

	result, err := write(tmp, zipPath, sources, total, level, opts.Progress)
	if err == nil {
		err = tmp.Chmod(targetMode(zipPath))
	}
	closeErr := tmp.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close temporary archive: %w", closeErr)
	}
	if err != nil {
		os.Remove(tmpName)
		return nil, err
	}

	if err := os.Rename(tmpName, zipPath); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}

	log.InfoWithFields("archive written", map[string]interface{}{
		"archive":  zipPath,
		"source":   srcDir,
		"added":    result.Added,
		"replaced": result.Replaced,
		"kept":     result.Kept,
		"bytes":    result.Bytes,
	})

	return result, nil
}

// targetMode keeps the mode of an archive being extended
func targetMode(zipPath string) fs.FileMode {
	if info, err := os.Stat(zipPath); err == nil {
		return info.Mode().Perm()
	}
	return archiveMode
}

// collect walks srcDir and returns its regular files keyed by base name.
// When two files share a base name the one walked last wins. Partial
// downloads left by an interrupted run are skipped.
func collect(srcDir string) (map[string]sourceFile, int64, error) {
	sources := make(map[string]sourceFile)
	var total int64

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasSuffix(d.Name(), storage.TempSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if prev, ok := sources[d.Name()]; ok {
			total -= prev.info.Size()
		}
		sources[d.Name()] = sourceFile{path: path, info: info}
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to walk %s: %w", srcDir, err)
	}
	return sources, total, nil
}

func write(out io.Writer, zipPath string, sources map[string]sourceFile, total int64, level int, progress io.Writer) (*Result, error) {
	result := &Result{}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	existing, err := zip.OpenReader(zipPath)
	switch {
	case err == nil:
		defer existing.Close()
		for _, f := range existing.File {
			if _, replaced := sources[f.Name]; replaced {
				result.Replaced++
				continue
			}
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("failed to copy entry %s: %w", f.Name, err)
			}
			result.Kept++
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open existing archive: %w", err)
	}

	var bar io.Writer = io.Discard
	if progress != nil && total > 0 {
		bar = progressbar.NewOptions64(
			total,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("[~] Compressing"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(progress, "\n")
			}),
		)
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, err := addFile(zw, name, sources[name], bar)
		if err != nil {
			return nil, err
		}
		result.Bytes += n
		result.Added++
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return result, nil
}

func addFile(zw *zip.Writer, name string, src sourceFile, bar io.Writer) (int64, error) {
	header, err := zip.FileInfoHeader(src.info)
	if err != nil {
		return 0, fmt.Errorf("failed to build header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("failed to create entry %s: %w", name, err)
	}

	f, err := os.Open(src.path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src.path, err)
	}
	defer f.Close()

	n, err := io.Copy(io.MultiWriter(w, bar), f)
	if err != nil {
		return n, fmt.Errorf("failed to compress %s: %w", src.path, err)
	}
	return n, nil
}

// Entries returns the set of entry names in the archive at zipPath.
// A missing archive yields an empty set.
func Entries(zipPath string) (map[string]struct{}, error) {
	names := make(map[string]struct{})

	r, err := zip.OpenReader(zipPath)
	if errors.Is(err, fs.ErrNotExist) {
		return names, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		names[f.Name] = struct{}{}
	}
	return names, nil
}
