package accounts

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/core/apperror"
	"ledger/internal/domain"
	"ledger/pkg/logger"
)

// Service implements chart-of-accounts operations.
type Service struct {
	repo     Repository
	tags     TagRepository
	registry TagRegistry
	rules    *RuleEvaluator
	deps     domain.Deps
}

// NewService creates the accounts service.
func NewService(repo Repository, tags TagRepository, rules *RuleEvaluator, deps domain.Deps) *Service {
	return &Service{repo: repo, tags: tags, rules: rules, deps: deps}
}

// UseRegistry makes tag-definition reads go through r (a cache) instead of
// the repository. Locked reads always hit the repository.
func (s *Service) UseRegistry(r TagRegistry) {
	s.registry = r
}

// UpdateInput lists the mutable account fields.
type UpdateInput struct {
	Name     *string
	IsActive *bool
}

// Create adds an account to the chart. A control account that already has
// journal lines cannot acquire children; a parent stops being a posting account.
func (s *Service) Create(ctx context.Context, acc *Account) error {
	if acc.ControlAccountCode != nil && strings.TrimSpace(*acc.ControlAccountCode) == "" {
		acc.ControlAccountCode = nil
	}
	if err := acc.Validate(); err != nil {
		return err
	}
	now := s.deps.Now()
	acc.IsActive = true
	acc.IsPostingAccount = true
	acc.Balance = 0
	acc.CreateTime = now
	acc.UpdateTime = now

	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByCode(ctx, acc.Code); err == nil {
			return apperror.NewDuplicate("account", "code", acc.Code)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		if p := acc.Parent(); p != "" {
			parent, err := s.repo.GetForUpdate(ctx, p)
			if apperror.IsNotFound(err) {
				return apperror.NewConstraintViolation("control_account_exists", "control account does not exist").
					WithDetail("control_account_code", p)
			}
			if err != nil {
				return err
			}
			if !parent.IsActive {
				return apperror.NewConstraintViolation("active_account_only", "control account is inactive").
					WithDetail("control_account_code", p)
			}
			hasLines, err := s.repo.HasLines(ctx, p)
			if err != nil {
				return err
			}
			if hasLines {
				return apperror.NewConstraintViolation("posting_account_only",
					"account already has journal lines and cannot become a control account").
					WithDetail("control_account_code", p)
			}
			if parent.IsPostingAccount {
				parent.IsPostingAccount = false
				parent.UpdateTime = now
				if err := s.repo.Update(ctx, parent); err != nil {
					return fmt.Errorf("demote control account: %w", err)
				}
			}
		}

		if err := s.repo.Create(ctx, acc); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		if err := s.deps.Record(ctx, domain.AuditRecord{
			EntityType: domain.AggregateAccount,
			EntityID:   acc.Code,
			Action:     domain.AuditCreate,
			Changes: map[string]any{
				"name":                 acc.Name,
				"normal_balance":       acc.NormalBalance.String(),
				"control_account_code": acc.Parent(),
				"is_posting_account":   acc.IsPostingAccount,
			},
		}); err != nil {
			return err
		}
		return s.deps.Publish(ctx, domain.DomainEvent{
			AggregateType: domain.AggregateAccount,
			AggregateID:   acc.Code,
			EventType:     "account.created",
			Payload:       acc,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "account created", "code", acc.Code, "parent", acc.Parent())
	return nil
}

// Update changes an account's name or active flag.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (*Account, error) {
	var out *Account
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.repo.GetForUpdate(ctx, code)
		if err != nil {
			return err
		}
		changes := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperror.NewValidation("account name is required").WithDetail("field", "name")
			}
			acc.Name = name
			changes["name"] = name
		}
		if in.IsActive != nil {
			acc.IsActive = *in.IsActive
			changes["is_active"] = acc.IsActive
		}
		acc.UpdateTime = s.deps.Now()
		if err := s.repo.Update(ctx, acc); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		out = acc
		return s.deps.Record(ctx, domain.AuditRecord{
			EntityType: domain.AggregateAccount,
			EntityID:   code,
			Action:     domain.AuditUpdate,
			Changes:    changes,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, code string) (*Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// GetForUpdate returns one account holding its row lock for the rest of the transaction.
func (s *Service) GetForUpdate(ctx context.Context, code string) (*Account, error) {
	return s.repo.GetForUpdate(ctx, code)
}

// List returns accounts matching filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Account, error) {
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	return s.repo.List(ctx, filter)
}

// Chart loads the whole chart and validates its hierarchy.
func (s *Service) Chart(ctx context.Context) (*Chart, error) {
	list, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	chart := NewChart(list)
	if err := chart.Validate(); err != nil {
		return nil, err
	}
	return chart, nil
}

// IsControl reports whether code has children.
func (s *Service) IsControl(ctx context.Context, code string) (bool, error) {
	return s.repo.HasChildren(ctx, code)
}

// ValidatePostingTarget returns the account when it may receive journal lines.
func (s *Service) ValidatePostingTarget(ctx context.Context, code string) (*Account, error) {
	acc, err := s.repo.GetByCode(ctx, code)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewConstraintViolation("account_exists", "account does not exist").
			WithDetail("account_code", code)
	}
	if err != nil {
		return nil, err
	}
	isControl, err := s.repo.HasChildren(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := CheckPostingTarget(acc, isControl); err != nil {
		return nil, err
	}
	return acc, nil
}

// DefineTag adds or replaces a registry entry. A tag cannot be declared
// unique while several accounts hold it.
func (s *Service) DefineTag(ctx context.Context, def *TagDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if def.EligibilityRule != "" {
		if _, err := s.rules.Compile(def.EligibilityRule); err != nil {
			return err
		}
	}
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Serialize against assignments of an existing tag.
		if _, err := s.tags.LockDefinition(ctx, def.Tag); err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if def.IsUnique {
			holders, err := s.tags.HoldersOf(ctx, def.Tag)
			if err != nil {
				return err
			}
			if len(holders) > 1 {
				return apperror.NewConstraintViolation("unique_tag", "tag is held by several accounts").
					WithDetail("tag", def.Tag).
					WithDetail("holders", holders)
			}
		}
		if err := s.tags.SaveDefinition(ctx, def); err != nil {
			return fmt.Errorf("save tag definition: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "tag defined", "tag", def.Tag, "unique", def.IsUnique)
	return nil
}

// ListTags returns the tag registry.
func (s *Service) ListTags(ctx context.Context) ([]TagDefinition, error) {
	return s.tags.ListDefinitions(ctx)
}

// AssignTag attaches tag to the account, moving it when the tag is unique.
// Uniqueness is read from the locked registry row, never from the cache.
func (s *Service) AssignTag(ctx context.Context, code, tag string) error {
	var (
		unique  bool
		removed int64
	)
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		def, err := s.lockDefinition(ctx, tag)
		if err != nil {
			return err
		}
		unique = def.IsUnique
		if unique {
			removed, err = s.attachUnique(ctx, def, code)
			return err
		}
		acc, err := s.holderCandidate(ctx, code)
		if err != nil {
			return err
		}
		if err := s.checkEligible(ctx, def, acc); err != nil {
			return err
		}
		return s.tags.AddTag(ctx, code, tag)
	})
	if err != nil {
		return err
	}
	if unique {
		logger.Info(ctx, "unique tag assigned", "tag", tag, "account", code, "detached", removed)
	}
	return nil
}

// AssignUniqueTag removes a unique tag from every other holder and attaches
// it to code, in one transaction.
func (s *Service) AssignUniqueTag(ctx context.Context, tag, code string) error {
	var removed int64
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		def, err := s.lockDefinition(ctx, tag)
		if err != nil {
			return err
		}
		if !def.IsUnique {
			return apperror.NewValidation("tag is not declared unique").WithDetail("tag", tag)
		}
		removed, err = s.attachUnique(ctx, def, code)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "unique tag assigned", "tag", tag, "account", code, "detached", removed)
	return nil
}

// attachUnique runs inside the transaction holding the lock on def.
func (s *Service) attachUnique(ctx context.Context, def *TagDefinition, code string) (int64, error) {
	acc, err := s.holderCandidate(ctx, code)
	if err != nil {
		return 0, err
	}
	if err := s.checkEligible(ctx, def, acc); err != nil {
		return 0, err
	}
	removed, err := s.tags.RemoveTagExcept(ctx, def.Tag, code)
	if err != nil {
		return 0, fmt.Errorf("detach unique tag: %w", err)
	}
	if err := s.tags.AddTag(ctx, code, def.Tag); err != nil {
		return 0, fmt.Errorf("attach unique tag: %w", err)
	}
	return removed, s.deps.Record(ctx, domain.AuditRecord{
		EntityType: domain.AggregateAccount,
		EntityID:   code,
		Action:     domain.AuditAssign,
		Changes:    map[string]any{"tag": def.Tag, "detached_from": removed},
	})
}

// RemoveTag detaches tag from the account.
func (s *Service) RemoveTag(ctx context.Context, code, tag string) error {
	return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.tags.RemoveTag(ctx, code, tag)
	})
}

// TagsOf returns the account's tags.
func (s *Service) TagsOf(ctx context.Context, code string) ([]string, error) {
	return s.tags.TagsOf(ctx, code)
}

// HasTag reports whether the account holds tag.
func (s *Service) HasTag(ctx context.Context, code, tag string) (bool, error) {
	tags, err := s.tags.TagsOf(ctx, code)
	if err != nil {
		return false, err
	}
	for _, t := range tags {
		if t == tag {
			return true, nil
		}
	}
	return false, nil
}

// FindByTag returns every account holding tag, ordered by code.
func (s *Service) FindByTag(ctx context.Context, tag string) ([]Account, error) {
	codes, err := s.tags.HoldersOf(ctx, tag)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(codes))
	for _, code := range codes {
		acc, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, *acc)
	}
	return out, nil
}

// FindUniqueTagHolder returns the account holding tag, or a constraint
// violation when nobody does.
func (s *Service) FindUniqueTagHolder(ctx context.Context, tag string) (*Account, error) {
	if _, err := s.definition(ctx, tag); err != nil {
		return nil, err
	}
	holders, err := s.tags.HoldersOf(ctx, tag)
	if err != nil {
		return nil, err
	}
	switch len(holders) {
	case 0:
		return nil, apperror.NewConstraintViolation("tagged_account_exists", "no account holds tag").
			WithDetail("tag", tag)
	case 1:
		return s.repo.GetByCode(ctx, holders[0])
	default:
		return nil, apperror.NewConstraintViolation("unique_tag", "tag is held by several accounts").
			WithDetail("tag", tag).
			WithDetail("holders", holders)
	}
}

func (s *Service) lockDefinition(ctx context.Context, tag string) (*TagDefinition, error) {
	def, err := s.tags.LockDefinition(ctx, tag)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewValidation("unknown tag").WithDetail("tag", tag)
	}
	return def, err
}

func (s *Service) definition(ctx context.Context, tag string) (*TagDefinition, error) {
	var (
		def *TagDefinition
		err error
	)
	if s.registry != nil {
		def, err = s.registry.Definition(ctx, tag)
	} else {
		def, err = s.tags.GetDefinition(ctx, tag)
	}
	if apperror.IsNotFound(err) {
		return nil, apperror.NewValidation("unknown tag").WithDetail("tag", tag)
	}
	return def, err
}

func (s *Service) holderCandidate(ctx context.Context, code string) (*Account, error) {
	acc, err := s.repo.GetByCode(ctx, code)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewConstraintViolation("account_exists", "account does not exist").
			WithDetail("account_code", code)
	}
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, apperror.NewConstraintViolation("active_account_only", "account is inactive").
			WithDetail("account_code", code)
	}
	return acc, nil
}

func (s *Service) checkEligible(ctx context.Context, def *TagDefinition, acc *Account) error {
	if def.EligibilityRule == "" {
		return nil
	}
	current, err := s.tags.TagsOf(ctx, acc.Code)
	if err != nil {
		return err
	}
	ok, err := s.rules.Eligible(def.EligibilityRule, acc, current)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewConstraintViolation("tag_eligibility", "account is not eligible for tag").
			WithDetail("account_code", acc.Code).
			WithDetail("tag", def.Tag)
	}
	return nil
}
