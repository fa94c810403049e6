package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"sticket-backend/models"
)

// FactoryContract wraps the event factory, which indexes event contracts by creator.
type FactoryContract struct {
	backend Backend
	address common.Address
	abi     abi.ABI
}

func NewFactoryContract(backend Backend, address string) (*FactoryContract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return &FactoryContract{
		backend: backend,
		address: common.HexToAddress(address),
		abi:     eventFactoryABI,
	}, nil
}

// GetCreatorEvents calls getCreatorEvents(creator). An empty result is not an error.
func (f *FactoryContract) GetCreatorEvents(ctx context.Context, creator string) ([]models.EventRecord, error) {
	if !common.IsHexAddress(creator) {
		return nil, fmt.Errorf("invalid creator address: %s", creator)
	}

	callData, err := f.abi.Pack("getCreatorEvents", common.HexToAddress(creator))
	if err != nil {
		return nil, fmt.Errorf("failed to pack call data: %w", err)
	}

	result, err := f.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &f.address,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call getCreatorEvents: %w", decodeRevert(err))
	}
	if len(result) == 0 {
		return []models.EventRecord{}, nil
	}

	var out []struct {
		Name          string
		Symbol        string
		EventContract common.Address
		EventCreator  common.Address
		CreatedAt     uint64
	}
	if err := f.abi.UnpackIntoInterface(&out, "getCreatorEvents", result); err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}

	records := make([]models.EventRecord, 0, len(out))
	for _, event := range out {
		records = append(records, models.EventRecord{
			Name:          event.Name,
			Symbol:        event.Symbol,
			EventContract: event.EventContract.Hex(),
			EventCreator:  event.EventCreator.Hex(),
			CreatedAt:     event.CreatedAt,
		})
	}
	return records, nil
}
