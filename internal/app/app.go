package app

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/catsdogs/internal/classifier"
	"github.com/Brownie44l1/catsdogs/internal/config"
	"github.com/Brownie44l1/catsdogs/internal/model"
	"github.com/Brownie44l1/catsdogs/internal/recognize"
)

// Classifiers constructs every backend it can. A backend that fails to
// construct is recorded as unavailable instead of stopping the caller.
func Classifiers(cfg config.Config, def classifier.Kind) *classifier.Set {
	set := classifier.NewSet(def)

	client, err := recognize.NewClient(cfg.Recognition.URL, &http.Client{Timeout: cfg.Recognition.Timeout})
	if err != nil {
		log.Warn().Err(err).Msg("general classifier disabled")
		set.Unavailable(classifier.KindGeneral, errors.Join(classifier.ErrModelUnavailable, err))
	} else {
		set.Add(classifier.NewGeneral(client))
		log.Info().Str("url", cfg.Recognition.URL).Msg("general classifier ready")
	}

	log.Info().Str("model", cfg.Model.Path).Msg("loading model")
	custom, err := classifier.LoadCustom(model.Options{
		ModelPath:    cfg.Model.Path,
		MetadataPath: cfg.Model.MetadataPath,
		LibraryPath:  cfg.Model.LibraryPath,
	})
	if err != nil {
		log.Warn().Err(err).Msg("custom classifier disabled")
		set.Unavailable(classifier.KindCustom, err)
	} else {
		set.Add(custom)
		log.Info().Str("model", cfg.Model.Path).Msg("custom classifier ready")
	}

	return set
}
