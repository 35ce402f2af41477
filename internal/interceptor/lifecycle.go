package interceptor

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/pkg/errors"
)

// Install fetches every shell asset and stores them in the shell partition.
// Nothing is stored unless all the assets are fetched successfully.
func (i *Interceptor) Install(ctx context.Context) error {
	responses := make([]*model.CachedResponse, 0, len(i.config.ShellAssets))

	for _, asset := range i.config.ShellAssets {
		key := i.resolve(asset)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
		if err != nil {
			return errors.Wrapf(err, "could not build request for %s", asset)
		}

		res, err := i.next.RoundTrip(req)
		if err != nil {
			return tlerror.Wrap(tlerror.Connectivity, err, "could not fetch "+asset)
		}

		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return tlerror.Wrap(tlerror.Connectivity, err, "could not read "+asset)
		}
		if res.StatusCode != http.StatusOK {
			return tlerror.New(tlerror.Remote, "could not fetch "+asset+": "+res.Status)
		}

		responses = append(responses, &model.CachedResponse{
			ID:         model.CachedResponseID(i.config.ShellVersion, key),
			Partition:  i.config.ShellVersion,
			Key:        key,
			StatusCode: res.StatusCode,
			Header:     res.Header.Clone(),
			Body:       body,
			StoredAt:   time.Now().UTC(),
		})
	}

	for _, response := range responses {
		if err := i.storage.Save(response); err != nil {
			return err
		}
	}

	i.logger.WithField("assets", len(responses)).Info("application shell cached")
	return nil
}

// Activate deletes the cache partitions of previous versions and takes control of all requests.
func (i *Interceptor) Activate() error {
	partitions, err := i.storage.FindResponsePartitions()
	if err != nil {
		return err
	}

	for _, partition := range partitions {
		if partition == i.config.ShellVersion || partition == i.config.APIVersion {
			continue
		}

		if err = i.storage.DeleteResponsePartition(partition); err != nil {
			return err
		}
		i.logger.WithField("partition", partition).Info("old cache deleted")
	}

	i.active.Store(true)
	return nil
}
