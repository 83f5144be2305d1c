package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"staffhub/internal/entity"
	"staffhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type employeeTestEnv struct {
	db        *gorm.DB
	service   *EmployeeService
	employees repository.EmployeeRepository
	users     repository.UserRepository
	clock     *fakeClock
	hasher    PasswordHasher
}

func newEmployeeTestEnv(t *testing.T) *employeeTestEnv {
	t.Helper()
	db := setupAuthTestDB(t)
	clock := &fakeClock{current: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)}
	hasher := BcryptPasswordHasher{Cost: 4}
	employeeRepo := repository.NewEmployeeRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &employeeTestEnv{
		db:        db,
		service:   NewEmployeeService(employeeRepo, userRepo, hasher, clock),
		employees: employeeRepo,
		users:     userRepo,
		clock:     clock,
		hasher:    hasher,
	}
}

func (env *employeeTestEnv) create(t *testing.T, email, first, last string, dept entity.Department) *CreateEmployeeResult {
	t.Helper()
	result, err := env.service.Create(context.Background(), CreateEmployeeInput{
		Email:      email,
		FirstName:  first,
		LastName:   last,
		Department: dept,
		Position:   "Engineer",
		JoinDate:   env.clock.Now(),
		Status:     entity.StatusActive,
	})
	if err != nil {
		t.Fatalf("failed creating employee %s: %v", email, err)
	}
	return result
}

func TestCreateEmployee_ProvisionsLogin(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()

	result := env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)

	if !strings.HasPrefix(result.Username, "janedoe") {
		t.Errorf("username = %q, want a janedoe prefix", result.Username)
	}
	if len(result.TempPassword) != tempPasswordLength {
		t.Errorf("temp password length = %d, want %d", len(result.TempPassword), tempPasswordLength)
	}

	user, err := env.users.FindByEmail(ctx, "jane.doe@example.com")
	if err != nil {
		t.Fatalf("failed finding user: %v", err)
	}
	if user == nil {
		t.Fatal("expected a login to be created for the employee")
	}
	if user.Role != entity.UserRoleEmployee {
		t.Errorf("role = %q, want employee", user.Role)
	}
	if user.PasswordHash == nil || !env.hasher.Verify(*user.PasswordHash, result.TempPassword) {
		t.Error("temp password does not match the stored hash")
	}
}

func TestCreateEmployee_DuplicateEmail(t *testing.T) {
	env := newEmployeeTestEnv(t)
	env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)

	_, err := env.service.Create(context.Background(), CreateEmployeeInput{
		Email:      "jane.doe@example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
		Department: entity.DepartmentIT,
		Position:   "Engineer",
	})
	if !errors.Is(err, ErrEmployeeExists) {
		t.Errorf("got %v, want ErrEmployeeExists", err)
	}
}

func TestUpdateEmployee(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)

	updated, err := env.service.Update(ctx, created.Employee.ID, UpdateEmployeeInput{
		Department: entity.DepartmentFinance,
		Position:   "Analyst",
		Status:     entity.StatusOnLeave,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Department != entity.DepartmentFinance {
		t.Errorf("department = %q, want Finance", updated.Department)
	}
	if updated.Status != entity.StatusOnLeave {
		t.Errorf("status = %q, want On Leave", updated.Status)
	}

	_, err = env.service.Update(ctx, uuid.New(), UpdateEmployeeInput{})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("unknown id: got %v, want ErrEmployeeNotFound", err)
	}
}

func TestDeleteEmployee_RemovesLinkedLogin(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)

	if err := env.service.Delete(ctx, created.Employee.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := env.service.Get(ctx, created.Employee.ID); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("got %v, want ErrEmployeeNotFound", err)
	}
	user, err := env.users.FindByEmail(ctx, "jane.doe@example.com")
	if err != nil {
		t.Fatalf("failed finding user: %v", err)
	}
	if user != nil {
		t.Error("expected the linked login to be removed with the employee")
	}
}

func TestListEmployees_FilterAndSearch(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)
	env.create(t, "john.smith@example.com", "John", "Smith", entity.DepartmentFinance)
	env.create(t, "ada.jones@example.com", "Ada", "Jones", entity.DepartmentIT)

	page, err := env.service.List(ctx, repository.EmployeeFilter{Department: "IT"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("IT department total = %d, want 2", page.Total)
	}

	page, err = env.service.List(ctx, repository.EmployeeFilter{Search: "smith"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("search total = %d, want 1", page.Total)
	}
	if page.Employees[0].Email() != "john.smith@example.com" {
		t.Errorf("search hit = %q, want john.smith@example.com", page.Employees[0].Email())
	}
}

func TestListEmployees_Pagination(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		env.create(t, email, "Test", "User", entity.DepartmentSales)
	}

	page, err := env.service.List(ctx, repository.EmployeeFilter{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Employees) != 2 || page.Total != 3 {
		t.Errorf("page 1: got %d rows of %d total, want 2 of 3", len(page.Employees), page.Total)
	}

	page, err = env.service.List(ctx, repository.EmployeeFilter{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Employees) != 1 {
		t.Errorf("page 2: got %d rows, want 1", len(page.Employees))
	}
}

func TestImportEmployees_SkipsBlankAndDuplicateEmails(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	env.create(t, "existing@example.com", "Already", "Here", entity.DepartmentHR)

	count, err := env.service.Import(ctx, []ImportRecord{
		{Email: "new1@example.com", FirstName: "New", LastName: "One", Department: "IT", Position: "Dev", Status: "Active"},
		{Email: "", FirstName: "No", LastName: "Email"},
		{Email: "existing@example.com", FirstName: "Dup", LastName: "Licate"},
		{Email: "new2@example.com", FirstName: "New", LastName: "Two", Department: "Sales", Position: "Rep"},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if count != 2 {
		t.Errorf("imported = %d, want 2", count)
	}

	all, err := env.employees.ListAll(ctx, nil)
	if err != nil {
		t.Fatalf("failed listing employees: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("total employees = %d, want 3", len(all))
	}
}

func TestDashboard(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)
	env.create(t, "john.smith@example.com", "John", "Smith", entity.DepartmentFinance)
	env.create(t, "ada.jones@example.com", "Ada", "Jones", entity.DepartmentIT)

	stats, err := env.service.Dashboard(ctx, nil)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if stats.TotalEmployees != 3 {
		t.Errorf("total = %d, want 3", stats.TotalEmployees)
	}
	if stats.Departments != 2 {
		t.Errorf("departments = %d, want 2", stats.Departments)
	}
	if stats.DepartmentCounts[entity.DepartmentIT] != 2 {
		t.Errorf("IT count = %d, want 2", stats.DepartmentCounts[entity.DepartmentIT])
	}
	if stats.NewThisMonth != 3 {
		t.Errorf("new this month = %d, want 3", stats.NewThisMonth)
	}
	if len(stats.RecentEmployees) != 3 {
		t.Errorf("recent = %d, want 3", len(stats.RecentEmployees))
	}
}

func TestDashboard_ScopedToOwnRecord(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)
	env.create(t, "john.smith@example.com", "John", "Smith", entity.DepartmentFinance)

	stats, err := env.service.Dashboard(ctx, created.Employee.UserID)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if stats.TotalEmployees != 1 {
		t.Errorf("scoped total = %d, want 1", stats.TotalEmployees)
	}
}

func TestClearAll(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)
	env.create(t, "john.smith@example.com", "John", "Smith", entity.DepartmentFinance)

	removed, err := env.service.ClearAll(ctx)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	all, err := env.employees.ListAll(ctx, nil)
	if err != nil {
		t.Fatalf("failed listing employees: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("employees remaining = %d, want 0", len(all))
	}
}

func TestGenerateUniqueUsername_CollidingLocalParts(t *testing.T) {
	env := newEmployeeTestEnv(t)

	first := env.create(t, "sam@one.example.com", "Sam", "One", entity.DepartmentIT)
	second := env.create(t, "sam@two.example.com", "Sam", "Two", entity.DepartmentIT)

	if first.Username == second.Username {
		t.Errorf("both employees got username %q", first.Username)
	}
}

func TestAttachPhoto(t *testing.T) {
	env := newEmployeeTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "jane.doe@example.com", "Jane", "Doe", entity.DepartmentIT)

	if err := env.service.AttachPhoto(ctx, created.Employee.ID, "profile_pics/jane.png"); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	employee, err := env.service.Get(ctx, created.Employee.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if employee.ProfilePicture != "profile_pics/jane.png" {
		t.Errorf("profile picture = %q, want profile_pics/jane.png", employee.ProfilePicture)
	}
}
