package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

var (
	ErrNotFound      = errors.New("记录不存在")
	ErrAlreadyExists = errors.New("记录已存在")
	ErrInvalidHandle = errors.New("handle 不能为空")
)

// Repository 没有内存缓存，每次操作都重新读取整个文档，修改后整体写回
type Repository struct {
	cfg     *config.Config
	dataDir string
	docPath string

	// 所有写操作（读取-修改-写回）都在这把锁下串行执行，避免并发写入互相覆盖
	mu sync.Mutex
}

func NewRepository(cfg *config.Config) *Repository {
	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	docFile := cfg.Storage.DocumentFile
	if docFile == "" {
		docFile = "database.json"
	}

	return &Repository{
		cfg:     cfg,
		dataDir: dataDir,
		docPath: filepath.Join(dataDir, docFile),
	}
}

// Load 读取文档，文件不存在时返回空文档
func (r *Repository) Load() (*domain.Document, error) {
	data, err := os.ReadFile(r.docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewDocument(), nil
		}
		return nil, fmt.Errorf("读取文档失败: %w", err)
	}

	doc := &domain.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("文档格式错误: %w", err)
	}
	doc.Normalize()

	return doc, nil
}

// Save 整体覆盖文档，先写临时文件再重命名，读者不会看到写了一半的文件
func (r *Repository) Save(doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.save(doc)
}

func (r *Repository) save(doc *domain.Document) error {
	doc.Normalize()

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化文档失败: %w", err)
	}

	if err := writeFileAtomic(r.docPath, data); err != nil {
		return fmt.Errorf("写入文档失败: %w", err)
	}

	return nil
}

// Update 在写锁内完成一次 读取-修改-写回，fn 返回错误时不写回
func (r *Repository) Update(fn func(doc *domain.Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.Load()
	if err != nil {
		return err
	}

	if err := fn(doc); err != nil {
		return err
	}

	return r.save(doc)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// 出错时清理临时文件，成功重命名后 Remove 会返回错误，忽略即可
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
