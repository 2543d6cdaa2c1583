package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range repo.db.users {
		if excluded[usr.ID] {
			continue
		}
		if (username != "" && usr.Username == username) || (email != "" && usr.Email == email) {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := repo.query()
	if filter != nil && !filter.IsEmpty() {
		from, to := filter.CreatedRange()
		filtered := make([]user.User, 0, len(users))
		for _, usr := range users {
			if filter.Search != "" && !core.ContainsFold(filter.Search, usr.FirstName, usr.LastName, usr.Username, usr.Email) {
				continue
			}
			if len(filter.Roles) > 0 && !containsStr(filter.Roles, usr.Role) {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
			if !inRange(usr.CreatedAt, from, to) {
				continue
			}
			filtered = append(filtered, usr)
		}
		users = filtered
	}

	orderSlice(users, ordering, func(i, j int, field string) int {
		a, b := users[i], users[j]
		switch field {
		case "first_name":
			return cmpStr(a.FirstName, b.FirstName)
		case "last_name":
			return cmpStr(a.LastName, b.LastName)
		case "username":
			return cmpStr(a.Username, b.Username)
		case "email":
			return cmpStr(a.Email, b.Email)
		case "role":
			return cmpStr(a.Role, b.Role)
		case "is_active":
			return cmpBool(a.IsActive, b.IsActive)
		case "created_at":
			return cmpTime(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return cmpTime(a.UpdatedAt, b.UpdatedAt)
		case "last_login":
			return cmpTime(a.LastLogin.Time, b.LastLogin.Time)
		}
		return 0
	})
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.users {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return *usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return *usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

// DeleteUsersByID deletes the Users along with their Teachers; their submissions are kept without submitter.
func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.users[id]; !ok {
			continue
		}
		delete(repo.db.users, id)
		cnt++

		for tid, t := range repo.db.teachers {
			if t.UserID == id {
				repo.db.deleteTeacher(tid)
			}
		}
		for _, n := range repo.db.numerics {
			if n.SubmittedByID.String == id {
				n.SubmittedByID.Valid = false
				n.SubmittedByID.String = ""
			}
		}
		for _, g := range repo.db.gradeds {
			if g.SubmittedByID.String == id {
				g.SubmittedByID.Valid = false
				g.SubmittedByID.String = ""
			}
		}
	}
	return cnt, nil
}

func containsStr(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
