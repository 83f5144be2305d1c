package repository

import (
	"context"
	"errors"
	"strings"

	"staffhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeFilter struct {
	Department string
	Status     string
	Search     string
	SortBy     string
	Page       int
	PerPage    int
}

// Sortable columns, keyed by the client-facing sort name.
var employeeSortColumns = map[string]string{
	"first_name": "users.first_name",
	"department": "employees.department",
	"join_date":  "employees.join_date",
	"status":     "employees.status",
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee *entity.Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Employee, error)
	Update(ctx context.Context, employee *entity.Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter EmployeeFilter) ([]entity.Employee, int64, error)
	ListAll(ctx context.Context, userID *uuid.UUID) ([]entity.Employee, error)
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, employee *entity.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Employee, error) {
	var employee entity.Employee
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&employee).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &employee, err
}

func (r *employeeRepository) Update(ctx context.Context, employee *entity.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}

func (r *employeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Employee{}, "id = ?", id).Error
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]entity.Employee, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.Employee{}).
		Joins("LEFT JOIN users ON users.id = employees.user_id")

	if filter.Department != "" {
		query = query.Where("LOWER(employees.department) = LOWER(?)", filter.Department)
	}
	if filter.Status != "" {
		query = query.Where("LOWER(employees.status) = LOWER(?)", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(employees.department) LIKE ? OR LOWER(employees.position) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := employeeSortColumns[filter.SortBy]
	if !ok {
		column = employeeSortColumns["first_name"]
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var employees []entity.Employee
	err := query.
		Preload("User").
		Order(column).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&employees).Error
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

func (r *employeeRepository) ListAll(ctx context.Context, userID *uuid.UUID) ([]entity.Employee, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var employees []entity.Employee
	if err := query.Order("created_at").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}
