package repository

import (
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

func (r *Repository) GetAllUsers() ([]domain.User, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	return doc.Users, nil
}

// GetUsersInGroups 返回属于任一给定小组的学生
func (r *Repository) GetUsersInGroups(groups []string) ([]domain.User, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		wanted[g] = struct{}{}
	}

	users := make([]domain.User, 0)
	for _, u := range doc.Users {
		if _, ok := wanted[u.Group]; ok {
			users = append(users, u)
		}
	}

	return users, nil
}

// CreateUser 注册新学生，同一身份已注册时返回 ErrAlreadyExists
func (r *Repository) CreateUser(user *domain.User) error {
	return r.Update(func(doc *domain.Document) error {
		identity := domain.Identity{Username: user.Name}
		if doc.FindUser(identity) != nil {
			return ErrAlreadyExists
		}
		for _, u := range doc.Users {
			if u.ID != "" && u.ID == user.ID {
				return ErrAlreadyExists
			}
		}

		user.Role = domain.RoleUser
		doc.Users = append(doc.Users, *user)
		return nil
	})
}
