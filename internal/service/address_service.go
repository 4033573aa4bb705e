package service

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"gorm.io/gorm"
)

// AddressService manages a driver's shipping addresses. A driver with any
// address always has exactly one default: the first address becomes it, and
// deleting the default promotes the oldest remaining one.
type AddressService interface {
	List(ctx context.Context, actor model.ActingIdentity) ([]dto.AddressResponse, error)
	Add(ctx context.Context, actor model.ActingIdentity, req dto.AddressRequest) (*dto.AddressResponse, error)
	Update(ctx context.Context, actor model.ActingIdentity, id uint, req dto.AddressRequest) (*dto.AddressResponse, error)
	Delete(ctx context.Context, actor model.ActingIdentity, id uint) error
	SetDefault(ctx context.Context, actor model.ActingIdentity, id uint) (*dto.AddressResponse, error)
}

type addressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) AddressService {
	return &addressService{addresses: addresses}
}

func addressOwner(actor model.ActingIdentity) (uint, error) {
	if actor.Effective.Role != model.RoleDriver {
		return 0, denied("only drivers keep shipping addresses")
	}
	return actor.Effective.Code, nil
}

func addressToResponse(a *model.Address) dto.AddressResponse {
	return dto.AddressResponse{
		ID:        a.ID,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
	}
}

func (s *addressService) List(ctx context.Context, actor model.ActingIdentity) ([]dto.AddressResponse, error) {
	owner, err := addressOwner(actor)
	if err != nil {
		return nil, err
	}
	list, err := s.addresses.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AddressResponse, 0, len(list))
	for i := range list {
		out = append(out, addressToResponse(&list[i]))
	}
	return out, nil
}

func (s *addressService) Add(ctx context.Context, actor model.ActingIdentity, req dto.AddressRequest) (*dto.AddressResponse, error) {
	owner, err := addressOwner(actor)
	if err != nil {
		return nil, err
	}
	addr := &model.Address{
		AccountCode: owner,
		Street:      req.Street,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
	}
	err = runTx(ctx, s.addresses.DB(), func(tx *gorm.DB) error {
		n, err := s.addresses.Count(ctx, tx, owner)
		if err != nil {
			return err
		}
		addr.IsDefault = req.IsDefault || n == 0
		if addr.IsDefault {
			if err := s.addresses.ClearDefault(ctx, tx, owner); err != nil {
				return err
			}
		}
		return s.addresses.Create(ctx, tx, addr)
	})
	if err != nil {
		return nil, err
	}
	resp := addressToResponse(addr)
	return &resp, nil
}

// Update replaces the address fields. is_default=true moves the default here;
// false never unsets it, use SetDefault on another address instead.
func (s *addressService) Update(ctx context.Context, actor model.ActingIdentity, id uint, req dto.AddressRequest) (*dto.AddressResponse, error) {
	owner, err := addressOwner(actor)
	if err != nil {
		return nil, err
	}
	var addr *model.Address
	err = runTx(ctx, s.addresses.DB(), func(tx *gorm.DB) error {
		var err error
		if addr, err = s.addresses.FindForUpdate(ctx, tx, owner, id); err != nil {
			return lookupErr(err, "address")
		}
		if req.IsDefault && !addr.IsDefault {
			if err := s.addresses.ClearDefault(ctx, tx, owner); err != nil {
				return err
			}
			addr.IsDefault = true
		}
		addr.Street, addr.City, addr.State, addr.ZipCode = req.Street, req.City, req.State, req.ZipCode
		return s.addresses.Save(ctx, tx, addr)
	})
	if err != nil {
		return nil, err
	}
	resp := addressToResponse(addr)
	return &resp, nil
}

func (s *addressService) Delete(ctx context.Context, actor model.ActingIdentity, id uint) error {
	owner, err := addressOwner(actor)
	if err != nil {
		return err
	}
	return runTx(ctx, s.addresses.DB(), func(tx *gorm.DB) error {
		addr, err := s.addresses.FindForUpdate(ctx, tx, owner, id)
		if err != nil {
			return lookupErr(err, "address")
		}
		if err := s.addresses.Delete(ctx, tx, owner, id); err != nil {
			return err
		}
		if addr.IsDefault {
			return s.addresses.PromoteOldest(ctx, tx, owner)
		}
		return nil
	})
}

func (s *addressService) SetDefault(ctx context.Context, actor model.ActingIdentity, id uint) (*dto.AddressResponse, error) {
	owner, err := addressOwner(actor)
	if err != nil {
		return nil, err
	}
	var addr *model.Address
	err = runTx(ctx, s.addresses.DB(), func(tx *gorm.DB) error {
		var err error
		if addr, err = s.addresses.FindForUpdate(ctx, tx, owner, id); err != nil {
			return lookupErr(err, "address")
		}
		if addr.IsDefault {
			return nil
		}
		if err := s.addresses.ClearDefault(ctx, tx, owner); err != nil {
			return err
		}
		addr.IsDefault = true
		return s.addresses.Save(ctx, tx, addr)
	})
	if err != nil {
		return nil, err
	}
	resp := addressToResponse(addr)
	return &resp, nil
}
