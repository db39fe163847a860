package cmd

import (
	"os"

	"github.com/ZacxDev/hotel-site/config"
	"github.com/ZacxDev/hotel-site/handlers"
	"github.com/ZacxDev/hotel-site/integrations"
	"github.com/ZacxDev/hotel-site/logging"
	"github.com/ZacxDev/hotel-site/variants"
)

func loadSiteManifest() (string, *config.SiteManifest, error) {
	root := appConfig.SiteDir
	manifest, err := config.LoadSiteManifest(root)
	if err != nil {
		return "", nil, err
	}
	return root, manifest, nil
}

// loadSite wires the runtime site from site.yaml, the generated variant
// manifest and the configured integrations.
func loadSite() (*handlers.Site, error) {
	root, manifest, err := loadSiteManifest()
	if err != nil {
		return nil, err
	}

	variantManifest, err := variants.LoadManifest(os.DirFS(root), manifest.GeneratedDir)
	if err != nil {
		return nil, err
	}

	translations, err := config.LoadTranslations(root, manifest.Translations)
	if err != nil {
		return nil, err
	}

	registry := manifest.Registry()
	resolver := variants.NewResolver(variantManifest, moduleLogger(logging.VariantsModule),
		variants.WithReservedAliases(registry.ReservedSegments()...))

	site := &handlers.Site{
		Root:         root,
		Manifest:     manifest,
		Resolver:     resolver,
		Registry:     registry,
		Translations: translations,
		APIKey:       appConfig.APIKey,
		Logger:       moduleLogger(logging.HandlersModule),
		RouteLogger:  moduleLogger(logging.RoutingModule),
	}
	wireIntegrations(site)
	return site, nil
}

func wireIntegrations(site *handlers.Site) {
	cfg := appConfig.Integrations
	logger := moduleLogger(logging.IntegrationsModule)
	client := integrations.NewClient(cfg.Timeout, logger)

	if cfg.EasyChannel.URL != "" {
		site.Offers = integrations.NewEasyChannel(client, cfg.EasyChannel.URL, cfg.EasyChannel.Key, logger)
	} else {
		site.Offers = integrations.StaticOffers{}
	}

	if cfg.CRM.URL == "" {
		logger.Info("integrations.crm.disabled")
		return
	}
	var mailer integrations.Mailer
	if cfg.Mail.URL != "" {
		mailer = integrations.NewMailAPI(client, cfg.Mail.URL, cfg.Mail.Key, cfg.Mail.From)
	}
	site.Enquiries = integrations.NewEnquiryService(
		integrations.NewCRM(client, cfg.CRM.URL, cfg.CRM.Key),
		mailer,
		cfg.Mail.Subject,
		logger,
	)
}
