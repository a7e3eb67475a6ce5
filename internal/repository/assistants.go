package repository

import (
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

func (r *Repository) GetAllAssistants() ([]domain.Assistant, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	return doc.Assistants, nil
}

// CreateAssistant 添加助教，id 留空，等该助教第一次通过 handle 匹配时再写入
// handle 已属于某个学生或助教时返回 ErrAlreadyExists
func (r *Repository) CreateAssistant(assistant *domain.Assistant) error {
	assistant.Name = domain.NormalizeHandle(assistant.Name)
	if assistant.Name == "" {
		return ErrInvalidHandle
	}

	return r.Update(func(doc *domain.Document) error {
		identity := domain.Identity{Username: assistant.Name}
		if doc.FindUser(identity) != nil || doc.FindAssistant(identity) != nil {
			return ErrAlreadyExists
		}

		assistant.ID = ""
		assistant.Role = domain.RoleAssistant
		doc.Assistants = append(doc.Assistants, *assistant)
		return nil
	})
}

// DeleteAssistantByRef 只删除第一个匹配的助教，其余集合不受影响
func (r *Repository) DeleteAssistantByRef(ref string) (*domain.Assistant, error) {
	var deleted domain.Assistant

	err := r.Update(func(doc *domain.Document) error {
		for i := range doc.Assistants {
			if domain.RefOf(domain.HandleKey(doc.Assistants[i].Name)) == ref {
				deleted = doc.Assistants[i]
				doc.Assistants = append(doc.Assistants[:i], doc.Assistants[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}

	return &deleted, nil
}

func (r *Repository) DeleteAssistant(name string) (*domain.Assistant, error) {
	return r.DeleteAssistantByRef(domain.RefOf(domain.HandleKey(name)))
}

// BindAssistantID 为 id 为空、handle 匹配的助教补上数字 id
func (r *Repository) BindAssistantID(identity domain.Identity) error {
	return r.Update(func(doc *domain.Document) error {
		assistant := doc.FindAssistant(identity)
		if assistant == nil {
			return ErrNotFound
		}
		if assistant.ID != "" {
			return nil
		}
		assistant.ID = identity.IDString()
		return nil
	})
}
