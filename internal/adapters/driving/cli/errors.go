package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// explain adds an actionable hint to classified errors.
func explain(err error) error {
	if err == nil {
		return nil
	}

	var perr *domain.ProviderError
	errors.As(err, &perr)

	switch {
	case domain.IsInvalidCredential(err):
		hint := "check the API key or pass --api-key"
		if perr != nil {
			if vars := perr.Provider.CredentialEnvVars(); len(vars) > 0 {
				hint = fmt.Sprintf("check your %s or pass --api-key", vars[0])
			}
		}
		return fmt.Errorf("%w\n%s", err, hint)

	case domain.IsRateLimited(err):
		if d := domain.RetryAfter(err); d > 0 {
			return fmt.Errorf("%w\nthe provider is rate limiting requests; retry in %s", err, d.Round(time.Second))
		}
		return fmt.Errorf("%w\nthe provider is rate limiting requests; wait and retry", err)

	case domain.IsProviderUnavailable(err):
		if perr != nil && perr.Provider == domain.ProviderOllama {
			return fmt.Errorf("%w\nis the Ollama server running? (ollama serve)", err)
		}
		return fmt.Errorf("%w\nthe provider could not be reached; check your network and retry", err)

	case errors.Is(err, domain.ErrEmbedding):
		return fmt.Errorf("%w\ncheck the embedding settings with: manualqa settings show", err)

	case errors.Is(err, domain.ErrInvalidProviderConfig):
		return fmt.Errorf("%w\nlist valid providers and models with: manualqa providers", err)
	}
	return err
}
