package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
	"github.com/timeplus-io/soc-dashboard/pkg/storage"
)

// Built-in role ids
const (
	RoleSecurityAdmin   = "security_admin"
	RoleSecurityManager = "security_manager"
	RoleSecurityAnalyst = "security_analyst"
	RoleSecurityViewer  = "security_viewer"
)

// DefaultAdminID is the id of the user that exists before anything is stored
const DefaultAdminID = "admin-001"

// DefaultDemoPasswords are accepted for every active user when none are configured
var DefaultDemoPasswords = []string{"password", "admin"}

// AuthOptions configures the demo session model
type AuthOptions struct {
	DemoPasswords []string
	BcryptCost    int
}

// AuthService manages users, roles and the single current session
type AuthService struct {
	mu             sync.RWMutex
	store          storage.LocalStorage
	users          []*models.User
	roles          []models.UserRole
	currentUser    *models.User
	passwordHashes [][]byte
	now            func() time.Time
}

// NewAuthService creates the auth service and restores users from store
func NewAuthService(store storage.LocalStorage, opts AuthOptions) (*AuthService, error) {
	passwords := opts.DemoPasswords
	if len(passwords) == 0 {
		passwords = DefaultDemoPasswords
	}
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hashes := make([][]byte, 0, len(passwords))
	for _, password := range passwords {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash demo password: %w", err)
		}
		hashes = append(hashes, hash)
	}

	s := &AuthService{
		store:          store,
		passwordHashes: hashes,
		now:            time.Now,
	}
	s.initializeDefaultData()
	return s, nil
}

func (s *AuthService) initializeDefaultData() {
	s.roles = []models.UserRole{
		{
			ID:          RoleSecurityAdmin,
			Name:        "Security Administrator",
			Description: "Full system administration access",
			Level:       1,
			Permissions: rolePermissions(RoleSecurityAdmin),
		},
		{
			ID:          RoleSecurityManager,
			Name:        "Security Manager",
			Description: "Manage security operations and team",
			Level:       2,
			Permissions: rolePermissions(RoleSecurityManager),
		},
		{
			ID:          RoleSecurityAnalyst,
			Name:        "Security Analyst",
			Description: "Analyze threats and manage incidents",
			Level:       3,
			Permissions: rolePermissions(RoleSecurityAnalyst),
		},
		{
			ID:          RoleSecurityViewer,
			Name:        "Security Viewer",
			Description: "Read-only access to security data",
			Level:       4,
			Permissions: rolePermissions(RoleSecurityViewer),
		},
	}

	adminRole := s.roles[0]
	s.users = []*models.User{
		{
			ID:          DefaultAdminID,
			Username:    "admin",
			Email:       "admin@company.com",
			FirstName:   "System",
			LastName:    "Administrator",
			Role:        cloneRole(adminRole),
			Department:  "Security Operations",
			IsActive:    true,
			CreatedAt:   s.now(),
			CreatedBy:   "system",
			Permissions: clonePermissions(adminRole.Permissions),
		},
	}

	stored, ok, err := s.store.GetItem(storage.UsersKey)
	if err != nil {
		logrus.Warnf("Failed to load users from local storage: %v", err)
		return
	}
	if !ok {
		return
	}

	var entries []*models.User
	if err := json.Unmarshal([]byte(stored), &entries); err != nil {
		logrus.Warnf("Failed to load users from local storage: %v", err)
		return
	}

	users := make([]*models.User, 0, len(entries))
	for _, u := range entries {
		if u == nil {
			continue
		}
		users = append(users, u)
	}
	if dropped := len(entries) - len(users); dropped > 0 {
		logrus.Warnf("Ignoring %d empty user entries in local storage", dropped)
	}
	if len(users) == 0 {
		logrus.Warn("No usable users in local storage, keeping defaults")
		return
	}
	s.users = users
	logrus.Infof("Loaded %d users from local storage", len(users))
}

func rolePermissions(roleID string) []models.Permission {
	permissions := []models.Permission{
		{ID: "1", Name: "view_dashboard", Description: "View dashboard", Resource: "dashboard", Action: "read"},
		{ID: "2", Name: "view_incidents", Description: "View incidents", Resource: "incidents", Action: "read"},
	}

	switch roleID {
	case RoleSecurityAdmin:
		return append(permissions,
			models.Permission{ID: "3", Name: "manage_users", Description: "Manage users", Resource: "users", Action: "write"},
			models.Permission{ID: "4", Name: "manage_system", Description: "System administration", Resource: "system", Action: "write"},
			models.Permission{ID: "5", Name: "manage_incidents", Description: "Manage incidents", Resource: "incidents", Action: "write"},
		)
	case RoleSecurityManager:
		return append(permissions,
			models.Permission{ID: "5", Name: "manage_incidents", Description: "Manage incidents", Resource: "incidents", Action: "write"},
			models.Permission{ID: "6", Name: "view_reports", Description: "View reports", Resource: "reports", Action: "read"},
		)
	case RoleSecurityAnalyst:
		return append(permissions,
			models.Permission{ID: "7", Name: "analyze_threats", Description: "Analyze threats", Resource: "threats", Action: "write"},
		)
	default:
		return permissions
	}
}

// Login starts a session for an active user with a valid demo password
func (s *AuthService) Login(credentials models.LoginCredentials) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *models.User
	for _, u := range s.users {
		if u.Username == credentials.Username && u.IsActive {
			user = u
			break
		}
	}
	if user == nil || !s.passwordMatches(credentials.Password) {
		logrus.Warnf("Failed login attempt for %q", credentials.Username)
		return nil, ErrInvalidCredentials
	}

	previous := user.LastLogin
	now := s.now()
	user.LastLogin = &now
	if err := s.saveUsers(); err != nil {
		user.LastLogin = previous
		return nil, err
	}

	previousUser := s.currentUser
	s.currentUser = user
	if err := s.saveCurrentUser(); err != nil {
		s.currentUser = previousUser
		return nil, err
	}

	logrus.Infof("User %s logged in", user.Username)
	return cloneUser(user), nil
}

func (s *AuthService) passwordMatches(password string) bool {
	for _, hash := range s.passwordHashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil {
			return true
		}
	}
	return false
}

// Logout ends the current session
func (s *AuthService) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser != nil {
		logrus.Infof("User %s logged out", s.currentUser.Username)
	}
	s.currentUser = nil
	if err := s.store.RemoveItem(storage.CurrentUserKey); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}

// GetCurrentUser returns the logged in user, restoring it from local storage
// if needed. It returns nil when nobody is logged in.
func (s *AuthService) GetCurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser != nil {
		return cloneUser(s.currentUser)
	}

	stored, ok, err := s.store.GetItem(storage.CurrentUserKey)
	if err != nil {
		logrus.Warnf("Failed to read current user: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(stored), &user); err != nil {
		logrus.Warnf("Discarding unreadable current user: %v", err)
		if err := s.store.RemoveItem(storage.CurrentUserKey); err != nil {
			logrus.Warnf("Failed to clear current user: %v", err)
		}
		return nil
	}

	// prefer the live record so later updates are visible
	if idx := s.indexOf(user.ID); idx >= 0 {
		s.currentUser = s.users[idx]
	} else {
		s.currentUser = &user
	}
	return cloneUser(s.currentUser)
}

// CreateUser adds a new active user with the given role
func (s *AuthService) CreateUser(data models.CreateUserData, createdBy string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == data.Username || u.Email == data.Email {
			return nil, ErrUserExists
		}
	}

	role, ok := s.findRole(data.RoleID)
	if !ok {
		return nil, ErrInvalidRole
	}

	user := &models.User{
		ID:          "user-" + uuid.NewString(),
		Username:    data.Username,
		Email:       data.Email,
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		Role:        cloneRole(role),
		Department:  data.Department,
		IsActive:    true,
		CreatedAt:   s.now(),
		CreatedBy:   createdBy,
		Permissions: clonePermissions(role.Permissions),
	}

	s.users = append(s.users, user)
	if err := s.saveUsers(); err != nil {
		return nil, err
	}

	logrus.Infof("User %s created by %s with role %s", user.Username, createdBy, role.ID)
	return cloneUser(user), nil
}

// UpdateUser applies a partial update. Changing the role also replaces the
// user's permissions with the role's.
func (s *AuthService) UpdateUser(userID string, req models.UpdateUserRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(userID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}

	updated := cloneUser(s.users[idx])
	if req.Email != nil {
		for _, u := range s.users {
			if u.ID != userID && u.Email == *req.Email {
				return nil, ErrUserExists
			}
		}
		updated.Email = *req.Email
	}
	if req.FirstName != nil {
		updated.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updated.LastName = *req.LastName
	}
	if req.Department != nil {
		updated.Department = *req.Department
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.RoleID != nil {
		role, ok := s.findRole(*req.RoleID)
		if !ok {
			return nil, ErrInvalidRole
		}
		updated.Role = cloneRole(role)
		updated.Permissions = clonePermissions(role.Permissions)
	}

	*s.users[idx] = *updated
	if err := s.saveUsers(); err != nil {
		return nil, err
	}
	return cloneUser(s.users[idx]), nil
}

// DeleteUser deactivates a user; the record is kept
func (s *AuthService) DeleteUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(userID)
	if idx < 0 {
		return ErrUserNotFound
	}

	s.users[idx].IsActive = false
	logrus.Infof("User %s deactivated", s.users[idx].Username)
	return s.saveUsers()
}

// GetAllUsers returns the active users
func (s *AuthService) GetAllUsers() []*models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.IsActive {
			users = append(users, cloneUser(u))
		}
	}
	return users
}

// GetAllRoles returns the built-in roles
func (s *AuthService) GetAllRoles() []models.UserRole {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]models.UserRole, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, cloneRole(r))
	}
	return roles
}

// HasPermission reports whether user may perform action on resource
func (s *AuthService) HasPermission(user *models.User, resource, action string) bool {
	if user == nil {
		return false
	}
	for _, p := range user.Permissions {
		if p.Resource == resource && p.Action == action {
			return true
		}
	}
	return false
}

// CanManageUsers reports whether user may administer other users
func (s *AuthService) CanManageUsers(user *models.User) bool {
	if user == nil {
		return false
	}
	return s.HasPermission(user, "users", "write") || user.Role.Level <= 2
}

func (s *AuthService) findRole(roleID string) (models.UserRole, bool) {
	for _, r := range s.roles {
		if r.ID == roleID {
			return r, true
		}
	}
	return models.UserRole{}, false
}

func (s *AuthService) indexOf(userID string) int {
	for i, u := range s.users {
		if u.ID == userID {
			return i
		}
	}
	return -1
}

// saveUsers must be called with mu held
func (s *AuthService) saveUsers() error {
	data, err := json.Marshal(s.users)
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	if err := s.store.SetItem(storage.UsersKey, string(data)); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}

func (s *AuthService) saveCurrentUser() error {
	data, err := json.Marshal(s.currentUser)
	if err != nil {
		return fmt.Errorf("failed to encode current user: %w", err)
	}
	if err := s.store.SetItem(storage.CurrentUserKey, string(data)); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Role = cloneRole(u.Role)
	c.Permissions = clonePermissions(u.Permissions)
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

func cloneRole(r models.UserRole) models.UserRole {
	r.Permissions = clonePermissions(r.Permissions)
	return r
}

func clonePermissions(p []models.Permission) []models.Permission {
	if p == nil {
		return nil
	}
	out := make([]models.Permission, len(p))
	copy(out, p)
	return out
}
