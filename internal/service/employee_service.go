package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"staffhub/internal/entity"
	"staffhub/internal/repository"
	"staffhub/internal/utils"

	"github.com/google/uuid"
)

const tempPasswordLength = 8

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

type CreateEmployeeInput struct {
	Email      string
	FirstName  string
	LastName   string
	Department entity.Department
	Position   string
	JoinDate   time.Time
	Address    string
	Phone      *string
	Status     entity.EmployeeStatus
}

type UpdateEmployeeInput struct {
	Department entity.Department
	Position   string
	JoinDate   time.Time
	Address    string
	Phone      *string
	Status     entity.EmployeeStatus
}

// CreateEmployeeResult carries the generated credentials back to the admin
// who created the record.
type CreateEmployeeResult struct {
	Employee     *entity.Employee
	Username     string
	TempPassword string
}

type ImportRecord struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Status     string `json:"status"`
}

type EmployeePage struct {
	Employees []entity.Employee
	Total     int64
	Page      int
	PerPage   int
}

type DashboardStats struct {
	TotalEmployees   int
	ActiveEmployees  int
	Departments      int
	NewThisMonth     int
	DepartmentCounts map[entity.Department]int
	RecentEmployees  []entity.Employee
}

type EmployeeService struct {
	employees    repository.EmployeeRepository
	users        repository.UserRepository
	passwordHash PasswordHasher
	clock        Clock
}

func NewEmployeeService(
	employees repository.EmployeeRepository,
	users repository.UserRepository,
	passwordHash PasswordHasher,
	clock Clock,
) *EmployeeService {
	return &EmployeeService{
		employees:    employees,
		users:        users,
		passwordHash: passwordHash,
		clock:        clock,
	}
}

func (s *EmployeeService) List(ctx context.Context, filter repository.EmployeeFilter) (*EmployeePage, error) {
	employees, total, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	return &EmployeePage{Employees: employees, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *EmployeeService) Get(ctx context.Context, id uuid.UUID) (*entity.Employee, error) {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}
	return employee, nil
}

// Create provisions a login for the new employee: a unique username derived
// from the email local part and a random temporary password, both returned to
// the caller for handover.
func (s *EmployeeService) Create(ctx context.Context, input CreateEmployeeInput) (*CreateEmployeeResult, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmployeeExists
	}

	username, err := s.generateUniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	tempPassword, err := utils.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := s.passwordHash.Hash(tempPassword)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         entity.UserRoleEmployee,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	joinDate := input.JoinDate
	if joinDate.IsZero() {
		joinDate = s.now()
	}
	status := input.Status
	if status == "" {
		status = entity.StatusActive
	}
	employee := &entity.Employee{
		UserID:     &user.ID,
		Department: input.Department,
		Position:   input.Position,
		JoinDate:   joinDate,
		Address:    input.Address,
		Phone:      input.Phone,
		Status:     status,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	employee.User = user

	return &CreateEmployeeResult{
		Employee:     employee,
		Username:     username,
		TempPassword: tempPassword,
	}, nil
}

func (s *EmployeeService) Update(ctx context.Context, id uuid.UUID, input UpdateEmployeeInput) (*entity.Employee, error) {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}

	employee.Department = input.Department
	employee.Position = input.Position
	if !input.JoinDate.IsZero() {
		employee.JoinDate = input.JoinDate
	}
	employee.Address = input.Address
	employee.Phone = input.Phone
	if input.Status != "" {
		employee.Status = input.Status
	}

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Delete removes the record and the linked login, if any.
func (s *EmployeeService) Delete(ctx context.Context, id uuid.UUID) error {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if employee == nil {
		return ErrEmployeeNotFound
	}

	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}
	if employee.UserID != nil {
		if err := s.users.Delete(ctx, *employee.UserID); err != nil {
			return err
		}
	}
	return nil
}

func (s *EmployeeService) ClearAll(ctx context.Context) (int, error) {
	employees, err := s.employees.ListAll(ctx, nil)
	if err != nil {
		return 0, err
	}
	for i := range employees {
		if err := s.Delete(ctx, employees[i].ID); err != nil {
			return i, err
		}
	}
	return len(employees), nil
}

// Dashboard aggregates headline numbers. Non-admin callers pass their own
// user id and see only their record.
func (s *EmployeeService) Dashboard(ctx context.Context, scopeUserID *uuid.UUID) (*DashboardStats, error) {
	employees, err := s.employees.ListAll(ctx, scopeUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &DashboardStats{
		TotalEmployees:   len(employees),
		DepartmentCounts: make(map[entity.Department]int),
	}
	for i := range employees {
		e := &employees[i]
		if e.User != nil && e.User.IsActive {
			stats.ActiveEmployees++
		}
		stats.DepartmentCounts[e.Department]++
		if e.JoinDate.Year() == now.Year() && e.JoinDate.Month() == now.Month() {
			stats.NewThisMonth++
		}
	}
	stats.Departments = len(stats.DepartmentCounts)

	recent := make([]entity.Employee, len(employees))
	copy(recent, employees)
	for i := 0; i < len(recent); i++ {
		for j := i + 1; j < len(recent); j++ {
			if recent[j].JoinDate.After(recent[i].JoinDate) {
				recent[i], recent[j] = recent[j], recent[i]
			}
		}
	}
	if len(recent) > 5 {
		recent = recent[:5]
	}
	stats.RecentEmployees = recent

	return stats, nil
}

// Import creates users and employee records from an exported JSON payload.
// Rows without an email or whose email is already registered are skipped.
func (s *EmployeeService) Import(ctx context.Context, records []ImportRecord) (int, error) {
	imported := 0
	for _, record := range records {
		email := utils.NormalizeEmail(record.Email)
		if email == "" {
			continue
		}
		taken, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return imported, err
		}
		if taken {
			continue
		}

		username, err := s.generateUniqueUsername(ctx, email)
		if err != nil {
			return imported, err
		}
		tempPassword, err := utils.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return imported, err
		}
		hash, err := s.passwordHash.Hash(tempPassword)
		if err != nil {
			return imported, err
		}

		user := &entity.User{
			Username:     username,
			Email:        email,
			PasswordHash: &hash,
			FirstName:    record.FirstName,
			LastName:     record.LastName,
			Role:         entity.UserRoleEmployee,
			IsActive:     true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return imported, err
		}

		status := entity.EmployeeStatus(record.Status)
		if status == "" {
			status = entity.StatusActive
		}
		employee := &entity.Employee{
			UserID:     &user.ID,
			Department: entity.Department(record.Department),
			Position:   record.Position,
			JoinDate:   s.now(),
			Status:     status,
		}
		if err := s.employees.Create(ctx, employee); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (s *EmployeeService) AttachPhoto(ctx context.Context, id uuid.UUID, path string) error {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if employee == nil {
		return ErrEmployeeNotFound
	}
	employee.ProfilePicture = path
	return s.employees.Update(ctx, employee)
}

func (s *EmployeeService) generateUniqueUsername(ctx context.Context, email string) (string, error) {
	base := strings.ToLower(nonAlphanumeric.ReplaceAllString(strings.Split(email, "@")[0], ""))
	if base == "" {
		base = "employee"
	}

	for attempt := 0; attempt < 1000; attempt++ {
		suffix, err := utils.GenerateNumericCode(3)
		if err != nil {
			return "", err
		}
		candidate := base + suffix
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	for counter := 1; ; counter++ {
		candidate := base + strconv.Itoa(counter)
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func (s *EmployeeService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
