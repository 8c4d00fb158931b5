package fetcher

import (
	"context"

	"github.com/rohmanhakim/chartstats/pkg/failure"
	"github.com/rohmanhakim/chartstats/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
