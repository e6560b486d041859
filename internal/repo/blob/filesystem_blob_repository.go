package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
)

var (
	ErrBytesWrittenMismatch = errors.New("bytes written mismatch")
	ErrBytesReadMismatch    = errors.New("bytes read mismatch")
)

const (
	dirPrefixLength = 2 // 16^2 = 256 directories
	dirPrefixDepth  = 2 // 256^2 = 65,536 directories
)

// FileSystemBlobRepositoryConfig holds configuration for the filesystem-based blob repository.
type FileSystemBlobRepositoryConfig struct {
	// Basedir is the root directory for blob storage
	Basedir string `env:"BASEDIR" default:"var/storage/blob"`
}

// FileSystemBlobRepositoryFactory creates a factory function that returns a new FileSystemRepository.
// The factory function implements the RepositoryFactory type.
func FileSystemBlobRepositoryFactory(cfg FileSystemBlobRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context, subdir string) (Repository, error) {
		return NewFileSystemBlobRepository(ctx, subdir, cfg)
	}
}

// NewFileSystemBlobRepository creates a new FileSystemRepository storing blobs
// below cfg.Basedir/subdir. Returns an error if the directory cannot be created.
func NewFileSystemBlobRepository(
	ctx context.Context,
	subdir string,
	cfg FileSystemBlobRepositoryConfig,
) (*FileSystemRepository, error) {
	log := logging.GetLogger("repo.blob.filesystem_repository").With(
		logging.Group("repo",
			"basedir", cfg.Basedir,
			"subdir", subdir,
		),
	)

	repo := &FileSystemRepository{
		root: filepath.Join(cfg.Basedir, subdir),
		log:  log,
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

// FileSystemRepository implements Repository using the local filesystem.
// Blobs are spread over a two level directory hierarchy derived from the ID.
type FileSystemRepository struct {
	root string
	log  logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

func (fsRepo *FileSystemRepository) Exists(_ context.Context, id domain.BlobID) bool {
	filename, err := fsRepo.GetFilename(id)
	if err != nil {
		return false
	}

	info, err := os.Stat(filename)

	return err == nil && info.Mode().IsRegular()
}

func (fsRepo *FileSystemRepository) Delete(ctx context.Context, id domain.BlobID) error {
	if err := fsRepo.deleteBlob(ctx, id); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error) {
	blob, err := fsRepo.fetchBlob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}

	return blob, nil
}

func (fsRepo *FileSystemRepository) Store(ctx context.Context, blob *domain.Blob) error {
	if err := fsRepo.storeBlob(ctx, blob); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsRepo.root, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

// GetFilename returns the full filesystem path for a blob with the given ID, e.g.
//
//	<basedir>/<subdir>/5f/56/5f56692f-0df9-4f68-a07a-bdb054943ed8.jpg
func (fsRepo *FileSystemRepository) GetFilename(id domain.BlobID) (string, error) {
	name := string(id)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasSuffix(name, ".tmp") {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidBlobID, name)
	}

	parts := []string{fsRepo.root}
	for i := 0; i < dirPrefixLength*dirPrefixDepth && i+dirPrefixLength < len(name); i += dirPrefixLength {
		parts = append(parts, strings.ToLower(name[i:i+dirPrefixLength]))
	}

	return filepath.Join(append(parts, name)...), nil
}

func (fsRepo *FileSystemRepository) storeBlob(ctx context.Context, blob *domain.Blob) (err error) {
	filename, err := fsRepo.GetFilename(blob.ID)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", blob.ID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob store failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob stored", "size", blob.Size())
		}
	}()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	file, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(file.Name())
		}
	}()

	if err := writeBlob(file, blob); err != nil {
		_ = file.Close()

		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Chmod(file.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if err := os.Rename(file.Name(), filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func writeBlob(file *os.File, blob *domain.Blob) error {
	if bytes, err := blob.WriteTo(file); err != nil {
		return fmt.Errorf("write: %w", err)
	} else if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	} else if info, err := file.Stat(); err != nil {
		return fmt.Errorf("stat: %w", err)
	} else if bytes != info.Size() || bytes != blob.Size() {
		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, blob.Size(), bytes)
	}

	return nil
}

func (fsRepo *FileSystemRepository) fetchBlob(
	ctx context.Context,
	blobID domain.BlobID,
) (blob *domain.Blob, err error) {
	filename, err := fsRepo.GetFilename(blobID)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", blobID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob fetched")
		}
	}()

	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrBlobNotFound, err)
		}

		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	data := domain.NewBlob(blobID, nil)
	if n, err := data.ReadFrom(file); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	} else if info, err := file.Stat(); err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	} else if n != info.Size() || n != data.Size() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrBytesReadMismatch, info.Size(), n)
	}

	return data, nil
}

func (fsRepo *FileSystemRepository) deleteBlob(ctx context.Context, id domain.BlobID) (err error) {
	filename, err := fsRepo.GetFilename(id)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", id, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob deleted")
		}
	}()

	if err != nil {
		return err
	}

	if err := os.Remove(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrBlobNotFound, err)
		}

		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
