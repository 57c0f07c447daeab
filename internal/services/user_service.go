package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/plumeworks/plume-be/internal/models"
)

// UserServiceProvider defines the interface for user services: the
// identity store plus the admin account workflow.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	GetAllUsers() ([]models.User, error)
	CreateUser(email, firstName, lastName, password string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	ToggleAdminRole(id string) (models.User, error)
	ToggleActive(id string) (models.User, error)
	DeleteUser(id string) error
}

// UserService provides business logic for user accounts.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

const userColumns = "id, email, first_name, last_name, password_hash, roles_json, is_active, profile_picture_url, created_at"

// scanUser is a helper to scan a user from a row or rows object.
func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	var rolesJSON string
	var active int
	var picture sql.NullString

	err := scanner.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &rolesJSON, &active, &picture, &user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	if err := json.Unmarshal([]byte(rolesJSON), &user.Roles); err != nil {
		return models.User{}, fmt.Errorf("decode roles for user %s: %w", user.ID, err)
	}
	user.IsActive = active == 1
	user.ProfilePictureURL = picture.String
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetAllUsers retrieves every user account, ordered by id so the admin
// list is deterministic.
func (s *UserService) GetAllUsers() ([]models.User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateUser registers a new active account with the baseline role,
// hashing the password.
func (s *UserService) CreateUser(email, firstName, lastName, password string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hashedPassword),
		Roles:        []string{models.RoleUser},
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return models.User{}, err
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, email, first_name, last_name, password_hash, roles_json, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, ?)",
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, string(rolesJSON), user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Deactivated accounts
// fail authentication the same way bad credentials do.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("authentication failed: invalid password")
	}
	if !user.IsActive {
		return models.User{}, fmt.Errorf("authentication failed: account deactivated")
	}

	user.PasswordHash = ""
	return user, nil
}

// ToggleAdminRole adds the admin role to the user if absent, removes it
// if present. Removing the role from the last active admin is refused
// with ErrLastAdmin so the system cannot lock itself out.
func (s *UserService) ToggleAdminRole(id string) (models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	if user.HasRole(models.RoleAdmin) {
		others, err := s.countOtherActiveAdmins(id)
		if err != nil {
			return models.User{}, err
		}
		if others == 0 {
			return models.User{}, ErrLastAdmin
		}
		user.Roles = slices.DeleteFunc(user.Roles, func(r string) bool { return r == models.RoleAdmin })
	} else {
		user.Roles = append(user.Roles, models.RoleAdmin)
	}

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.db.Exec("UPDATE users SET roles_json = ? WHERE id = ?", string(rolesJSON), id); err != nil {
		return models.User{}, err
	}

	s.events.Record("user.role_toggled", "info", fmt.Sprintf("Roles of %s changed to %v", user.Email, user.Roles), nil, &user.ID)
	return user, nil
}

// ToggleActive flips the account's active flag. The authentication
// guard enforces the flag on the account's next request.
func (s *UserService) ToggleActive(id string) (models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	user.IsActive = !user.IsActive
	active := 0
	eventType := "user.deactivated"
	if user.IsActive {
		active = 1
		eventType = "user.activated"
	}
	if _, err := s.db.Exec("UPDATE users SET is_active = ? WHERE id = ?", active, id); err != nil {
		return models.User{}, err
	}

	s.events.Record(eventType, "info", fmt.Sprintf("Account %s toggled", user.Email), nil, &user.ID)
	return user, nil
}

// DeleteUser removes a user. Their comments go with them, their posts
// survive with a NULL author (enforced by the schema's foreign keys).
func (s *UserService) DeleteUser(id string) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return err
	}

	s.events.Record("user.deleted", "warn", fmt.Sprintf("Account %s deleted", user.Email), nil, &id)
	return nil
}

// countOtherActiveAdmins counts active admins excluding the given user.
// Roles are stored as a JSON array, so a quoted LIKE match is exact.
func (s *UserService) countOtherActiveAdmins(excludeID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE id != ? AND is_active = 1 AND roles_json LIKE '%"ROLE_ADMIN"%'`,
		excludeID,
	).Scan(&count)
	return count, err
}
