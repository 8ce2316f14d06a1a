package service

import (
	"contractabi/internal/application/dto"
	"contractabi/internal/domain/entity"
	"contractabi/internal/domain/valueobject"
	"contractabi/internal/port/outbound"
)

// toFunctionDTOs converts functions to their output form. Selectors are filled
// only when hasher is non-nil.
func toFunctionDTOs(functions []valueobject.ContractFunction, hasher outbound.SignatureHasher) []dto.FunctionDTO {
	out := make([]dto.FunctionDTO, 0, len(functions))
	for _, fn := range functions {
		params := make([]dto.ParamDTO, 0, len(fn.Params()))
		for _, p := range fn.Params() {
			params = append(params, dto.ParamDTO{Name: p.Name(), Type: p.Type()})
		}
		item := dto.FunctionDTO{
			Name:       fn.Name(),
			ReturnType: fn.ReturnType(),
			Params:     params,
			FnType:     fn.FnType().String(),
		}
		if hasher != nil {
			item.Selector = hasher.Selector(fn.CanonicalSignature())
		}
		out = append(out, item)
	}
	return out
}

func toExtractionReport(abi *entity.ContractABI) dto.ExtractionReport {
	return dto.ExtractionReport{
		FunctionCount: abi.FunctionCount(),
		PrivateCount:  len(abi.PrivateNames()),
		SkippedCount:  len(abi.Failures()),
		Private:       abi.PrivateNames(),
		Skipped:       abi.Failures(),
		Summary:       abi.Summary(),
	}
}

func toABIResponse(abi *entity.ContractABI, selectors outbound.SignatureHasher) *dto.ABIResponse {
	return &dto.ABIResponse{
		ID:         abi.ID(),
		SourceName: abi.SourceName(),
		Digest:     abi.Digest(),
		Functions:  toFunctionDTOs(abi.Functions(), selectors),
		Report:     toExtractionReport(abi),
		CreatedAt:  abi.CreatedAt(),
	}
}

func functionNames(functions []valueobject.ContractFunction) []string {
	names := make([]string, 0, len(functions))
	for _, fn := range functions {
		names = append(names, fn.Name())
	}
	return names
}
