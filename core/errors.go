package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	MarketErrorBadInput         = "MARKET_BAD_INPUT"
	MarketErrorDuplicateBinding = "MARKET_DUPLICATE_BINDING"
	MarketErrorBindingNotFound  = "MARKET_BINDING_NOT_FOUND"
	MarketErrorCallerDenied     = "MARKET_CALLER_DENIED"
	MarketErrorUnknownRequest   = "MARKET_UNKNOWN_REQUEST"
	MarketErrorAlreadyResponded = "MARKET_ALREADY_RESPONDED"
	MarketErrorDispatchFailed   = "MARKET_DISPATCH_FAILED"
	MarketErrorInternal         = "MARKET_INTERNAL_ERROR"
)

// marketErrorMapper wraps core sentinel errors into go-errors envelopes with
// stable categories and text codes. Entrypoints map exactly once, at the
// boundary, so internal code keeps working with errors.Is on the sentinels.
func marketErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureMarketErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrInvalidBinding):
		return newMarketError(err, goerrors.CategoryBadInput, MarketErrorBadInput)
	case errors.Is(err, ErrBindingExists):
		return newMarketError(err, goerrors.CategoryConflict, MarketErrorDuplicateBinding)
	case errors.Is(err, ErrBindingNotFound):
		return newMarketError(err, goerrors.CategoryNotFound, MarketErrorBindingNotFound)
	case errors.Is(err, ErrCallerNotRelayer),
		errors.Is(err, ErrCallerNotOwner),
		errors.Is(err, ErrCallerNotSelf):
		return newMarketError(err, goerrors.CategoryAuthz, MarketErrorCallerDenied)
	case errors.Is(err, ErrUnknownRequest):
		return newMarketError(err, goerrors.CategoryNotFound, MarketErrorUnknownRequest)
	case errors.Is(err, ErrRequestResponded),
		errors.Is(err, ErrInvalidRequestState):
		return newMarketError(err, goerrors.CategoryConflict, MarketErrorAlreadyResponded)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureMarketErrorEnvelope(mapped)
}

func newMarketError(source error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureMarketErrorEnvelope(
		goerrors.Wrap(source, category, source.Error()).
			WithTextCode(textCode),
	)
}

func ensureMarketErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = marketHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultMarketTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultMarketTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return MarketErrorBadInput
	case goerrors.CategoryNotFound:
		return MarketErrorBindingNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return MarketErrorCallerDenied
	case goerrors.CategoryConflict:
		return MarketErrorDuplicateBinding
	case goerrors.CategoryExternal:
		return MarketErrorDispatchFailed
	default:
		return MarketErrorInternal
	}
}

func marketHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
