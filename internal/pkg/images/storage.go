package images

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StoredImage descreve uma imagem armazenada e acessível por URL.
// O motor de listagem usa apenas o campo URL.
type StoredImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Store é o colaborador de processamento de imagens: recebe os arquivos crus
// do upload e devolve descritores com URLs acessíveis.
type Store interface {
	Save(file *multipart.FileHeader) (StoredImage, error)
}

// LocalStore grava os uploads em disco e serve as URLs sob /uploads/.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore cria o store local, garantindo que o diretório exista.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de uploads %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save persiste um arquivo de upload com nome único (UUID) preservando a extensão.
func (s *LocalStore) Save(file *multipart.FileHeader) (StoredImage, error) {
	src, err := file.Open()
	if err != nil {
		return StoredImage{}, fmt.Errorf("falha ao abrir upload %s: %w", file.Filename, err)
	}
	defer src.Close()

	// Nome único para evitar colisão entre uploads com o mesmo nome original.
	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return StoredImage{}, fmt.Errorf("falha ao criar arquivo de imagem %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return StoredImage{}, fmt.Errorf("falha ao gravar imagem %s: %w", name, err)
	}

	return StoredImage{
		URL:      s.baseURL + "/uploads/" + name,
		Filename: name,
	}, nil
}
