package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/libraryhub/library-server/internal/auth"
	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
	"github.com/libraryhub/library-server/internal/validation"
)

// MemberService manages member accounts.
type MemberService struct {
	store     store.Store
	validator *validation.Validator
	now       Clock
	logger    *slog.Logger
}

// NewMemberService creates a new member service.
func NewMemberService(st store.Store, v *validation.Validator, now Clock, logger *slog.Logger) *MemberService {
	return &MemberService{
		store:     st,
		validator: v,
		now:       orNow(now),
		logger:    orDiscard(logger),
	}
}

// CreateMemberRequest is the payload for registering a member.
type CreateMemberRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255" doc:"Full name"`
	Email    string `json:"email" validate:"required,email,max=255" doc:"Login email"`
	Phone    string `json:"phone" validate:"required,phone" doc:"10 digit mobile number"`
	Role     string `json:"role" validate:"required,oneof=ADMIN STUDENT FACULTY" doc:"ADMIN, STUDENT or FACULTY"`
	Password string `json:"password" validate:"required,min=8,max=1024" doc:"Initial password"`
}

// UpdateMemberRequest changes the supplied fields of a member. Nil fields are untouched.
type UpdateMemberRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,notblank,max=255" doc:"Full name"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255" doc:"Login email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone" doc:"10 digit mobile number"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN STUDENT FACULTY" doc:"Requires an admin caller"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024" doc:"New password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *CreateMemberRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *UpdateMemberRequest) normalize() {
	r.Name = trimmed(r.Name)
	if r.Email != nil {
		email := normalizeEmail(*r.Email)
		r.Email = &email
	}
	r.Phone = trimmed(r.Phone)
}

func memberNotFound(id int64) string {
	return fmt.Sprintf("member %d not found", id)
}

// Create registers a member. A duplicate email fails with AlreadyExists.
func (s *MemberService) Create(ctx context.Context, actor domain.Actor, req CreateMemberRequest) (*domain.Member, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	m := &domain.Member{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         domain.Role(req.Role),
		PasswordHash: hash,
	}
	m.Stamp(actor, s.now())

	if _, err := s.store.GetMemberByEmail(ctx, m.Email); err == nil {
		return nil, domainerrors.AlreadyExistsf("member with email %s already exists", m.Email)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := s.store.CreateMember(ctx, m); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExistsf("member with email %s already exists", m.Email)
		}
		return nil, err
	}

	s.logger.Info("member created", "member_id", m.ID, "role", m.Role, "actor", actor.OrSystem().Username)
	return m, nil
}

// Get returns a member by id.
func (s *MemberService) Get(ctx context.Context, id int64) (*domain.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, translate(err, memberNotFound(id))
	}
	return m, nil
}

// Update applies the non-nil fields of req. Only a privileged actor may
// change roles.
func (s *MemberService) Update(ctx context.Context, actor domain.Actor, id int64, req UpdateMemberRequest) (*domain.Member, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, translate(err, memberNotFound(id))
	}

	if req.Role != nil && domain.Role(*req.Role) != m.Role {
		if !actor.Privileged() {
			return nil, domainerrors.Forbidden("only an admin can change a member's role")
		}
		m.Role = domain.Role(*req.Role)
	}
	if req.Email != nil {
		email := *req.Email
		if email != m.Email {
			if other, err := s.store.GetMemberByEmail(ctx, email); err == nil && other.ID != m.ID {
				return nil, domainerrors.AlreadyExistsf("member with email %s already exists", email)
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			m.Email = email
		}
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Phone != nil {
		m.Phone = *req.Phone
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, domainerrors.Validation(err.Error())
		}
		m.PasswordHash = hash
	}

	m.Touch(actor, s.now())
	if err := s.store.UpdateMember(ctx, m); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExistsf("member with email %s already exists", m.Email)
		}
		return nil, translate(err, memberNotFound(id))
	}

	s.logger.Info("member updated", "member_id", id, "actor", actor.OrSystem().Username)
	return m, nil
}

// Delete removes a member and every transaction referencing them.
func (s *MemberService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	now := s.now()
	var removed int
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		if _, err := q.GetMember(ctx, id); err != nil {
			return translate(err, memberNotFound(id))
		}

		entries, err := transactionDeletions(ctx, q, 0, id)
		if err != nil {
			return err
		}
		removed = len(entries)
		if _, err := q.DeleteTransactionsFor(ctx, 0, id); err != nil {
			return err
		}
		if err := q.DeleteMember(ctx, id); err != nil {
			return translate(err, memberNotFound(id))
		}
		_, err = q.AppendRevision(ctx, actor, now, entries...)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("member deleted", "member_id", id, "transactions_removed", removed, "actor", actor.OrSystem().Username)
	return nil
}

// Search returns a page of members matching filter, most recently updated first.
// size is capped at MaxPageSize.
func (s *MemberService) Search(ctx context.Context, filter store.MemberFilter, page, size int) (domain.Page[*domain.Member], error) {
	req, err := pageRequest(page, size)
	if err != nil {
		return domain.Page[*domain.Member]{}, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return domain.Page[*domain.Member]{}, domainerrors.Validationf("unknown role %q", filter.Role)
	}
	items, total, err := s.store.SearchMembers(ctx, filter, req)
	if err != nil {
		return domain.Page[*domain.Member]{}, err
	}
	return domain.NewPage(items, total, req), nil
}
