package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/user"
)

var userColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"username":   "username",
	"email":      "email",
	"role":       "role",
	"is_active":  "is_active",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"last_login": "last_login",
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{repository{exec: exec}}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	var or sq.Or
	if username != "" {
		or = append(or, sq.Eq{"username": username})
	}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if len(or) == 0 {
		return nil
	}

	q := psql.Select("1").From(`"user"`).Where(or)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	exists, err := repo.exists(ctx, repo.getExec(exec), q)
	if err != nil {
		return mapError(err, "user", "checking username uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	q := psql.Insert(`"user"`).
		Columns("id", "first_name", "last_name", "username", "email", "role", "is_active", "password_hash", "created_at", "updated_at", "last_login").
		Values(usr.ID, usr.FirstName, usr.LastName, usr.Username, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return user.User{}, mapError(err, "user", "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	q := psql.Select("*").From(`"user"`)
	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "first_name", "last_name", "username", "email"))
		}
		if len(filter.Roles) > 0 {
			q = q.Where(sq.Eq{"role": filter.Roles})
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		from, to := filter.CreatedRange()
		if !from.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": from})
		}
		if !to.IsZero() {
			q = q.Where(sq.Lt{"created_at": to})
		}
	}
	q = q.OrderBy(append(orderBy(ordering, userColumns), "id")...)

	users := make([]user.User, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &users, q); err != nil {
		return nil, mapError(err, "user", "selecting users")
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Select("*").From(`"user"`)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		q = q.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		q = q.Where(sq.Eq{"email": filter.Email})
	case filter.UsernameOrEmail != "":
		q = q.Where(sq.Or{sq.Eq{"username": filter.UsernameOrEmail}, sq.Eq{"email": filter.UsernameOrEmail}})
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.get(ctx, repo.getExec(exec), &usr, q.Limit(1)); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Update(`"user"`).
		SetMap(map[string]interface{}{
			"first_name":    usr.FirstName,
			"last_name":     usr.LastName,
			"username":      usr.Username,
			"email":         usr.Email,
			"role":          usr.Role,
			"is_active":     usr.IsActive,
			"password_hash": usr.PasswordHash,
			"updated_at":    usr.UpdatedAt,
			"last_login":    usr.LastLogin,
		}).
		Where(sq.Eq{"id": usr.ID})

	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return user.User{}, mapError(err, "user", "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

// DeleteUsersByID deletes the Users; their Teachers go with them & their submissions are kept without submitter.
func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete(`"user"`).Where(sq.Eq{"id": valid}))
	if err != nil {
		return 0, mapError(err, "user", "deleting users")
	}
	return n, nil
}
