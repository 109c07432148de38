package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"unicode"

	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const defaultSearchLimit = 10

type CustomerService struct {
	repo db.CustomerRepository
	jobs db.JobRepository
}

func NewCustomerService(repo db.CustomerRepository, jobs db.JobRepository) *CustomerService {
	return &CustomerService{repo: repo, jobs: jobs}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
	}
	normalizeCustomer(customer)

	if err := validateCustomer(customer); err != nil {
		slog.Warn("customer creation validation failed", "error", err)
		return nil, err
	}

	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		slog.Error("failed to create customer", "error", err)
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	slog.Info("created customer", "customer_id", customer.ID)
	return customer, nil
}

func (s *CustomerService) GetCustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	if id <= 0 {
		return nil, invalidID("customer", id)
	}
	return s.repo.GetCustomerByID(ctx, id)
}

func (s *CustomerService) GetAllCustomers(ctx context.Context) ([]*models.Customer, error) {
	customers, err := s.repo.GetAllCustomers(ctx)
	if err != nil {
		slog.Error("failed to get customers", "error", err)
		return nil, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, nil
}

// SearchCustomers returns customers whose name, email or phone matches any
// whitespace-separated term of query, closest matches first.
func (s *CustomerService) SearchCustomers(ctx context.Context, query string, limit int) ([]*models.Customer, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, validationError("search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	customers, err := s.repo.GetAllCustomers(ctx)
	if err != nil {
		slog.Error("failed to load customers for search", "error", err)
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}

	type scored struct {
		customer *models.Customer
		rank     int
	}
	var matches []scored
	for _, c := range customers {
		if rank, ok := customerMatchesSearch(c, terms); ok {
			matches = append(matches, scored{customer: c, rank: rank})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rank < matches[j].rank })
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]*models.Customer, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.customer)
	}

	slog.Info("customer search", "query", query, "matches", len(results))
	return results, nil
}

// UpdateCustomer merges the non-nil fields of req into the stored customer.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if id <= 0 {
		return nil, invalidID("customer", id)
	}
	if req.IsEmpty() {
		return nil, validationError("no updates provided")
	}

	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(customer)
	normalizeCustomer(customer)
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		slog.Error("failed to update customer", "customer_id", id, "error", err)
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	slog.Info("updated customer", "customer_id", id)
	return customer, nil
}

// DeleteCustomer refuses while the customer still has open jobs.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int) error {
	if id <= 0 {
		return invalidID("customer", id)
	}

	if _, err := s.repo.GetCustomerByID(ctx, id); err != nil {
		return err
	}

	open, err := s.jobs.CountOpenJobsForCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check open jobs: %w", err)
	}
	if open > 0 {
		return validationError("customer %d has %d open job(s); complete or cancel them first", id, open)
	}

	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		slog.Error("failed to delete customer", "customer_id", id, "error", err)
		return err
	}

	slog.Info("deleted customer", "customer_id", id)
	return nil
}

func normalizeCustomer(c *models.Customer) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Notes = strings.TrimSpace(c.Notes)
}

func validateCustomer(c *models.Customer) error {
	if c.FirstName == "" && c.LastName == "" {
		return validationError("first_name or last_name is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return validationError("email %q is not a valid address", c.Email)
		}
	}
	if c.Phone != "" && len(digitsOnly(c.Phone)) < 7 {
		return validationError("phone %q must contain at least 7 digits", c.Phone)
	}
	return nil
}

// customerMatchesSearch reports whether any term matches the customer and the
// best (lowest) fuzzy rank among the matching fields.
func customerMatchesSearch(c *models.Customer, terms []string) (int, bool) {
	fields := []string{
		strings.ToLower(c.FullName()),
		strings.ToLower(c.FirstName),
		strings.ToLower(c.LastName),
		c.Email,
	}
	phone := digitsOnly(c.Phone)

	best := -1
	for _, term := range terms {
		for _, field := range fields {
			if field == "" {
				continue
			}
			if rank := fuzzy.RankMatchFold(term, field); rank >= 0 && (best < 0 || rank < best) {
				best = rank
			}
		}

		if digits := digitsOnly(term); len(digits) >= 3 && strings.Contains(phone, digits) {
			if rank := len(phone) - len(digits); best < 0 || rank < best {
				best = rank
			}
		}
	}

	return best, best >= 0
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
