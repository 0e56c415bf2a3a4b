// Package seo builds page metadata and canonical links.
package seo

import (
	"encoding/json"
	"net/url"
	"strconv"

	"pulsecart/internal/models"
)

const (
	SiteName           = "PulseCart"
	DefaultDescription = "PulseCart is a multilingual AI-ready e-commerce experience powered by FastAPI and React with instant checkout."
	DefaultSiteURL     = "http://localhost:3000"

	CollectionPath = "/collections/birthday-card"
	fallbackImage  = "/img.png"
)

// AbsoluteURL resolves path against siteURL; path is returned as is when siteURL is unusable.
func AbsoluteURL(siteURL, path string) string {
	if path == "" {
		path = "/"
	}
	base, err := url.Parse(siteURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return base.ResolveReference(ref).String()
}

func Title(page string) string {
	return page + " | " + SiteName
}

type ProductPage struct {
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description" yaml:"description"`
	Canonical      string `json:"canonical" yaml:"canonical"`
	Image          string `json:"image" yaml:"image"`
	Availability   string `json:"availability" yaml:"availability"`
	StructuredData string `json:"structured_data" yaml:"structured_data"`
}

type offer struct {
	Type          string `json:"@type"`
	URL           string `json:"url"`
	PriceCurrency string `json:"priceCurrency"`
	Price         string `json:"price"`
	Availability  string `json:"availability"`
}

type productLD struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
	SKU         int64  `json:"sku"`
	Offers      offer  `json:"offers"`
}

// Product describes a product page. Products reached through the featured
// collection use the collection path as canonical.
func Product(siteURL string, p models.Product, viaCollection bool) (ProductPage, error) {
	path := "/products/" + strconv.FormatInt(p.ID, 10)
	if viaCollection {
		path = CollectionPath
	}
	canonical := AbsoluteURL(siteURL, path)

	image := AbsoluteURL(siteURL, fallbackImage)
	if p.ImageURL != nil && *p.ImageURL != "" {
		image = *p.ImageURL
	}

	availability, schemaAvailability := "out of stock", "https://schema.org/OutOfStock"
	if p.InStock() {
		availability, schemaAvailability = "in stock", "https://schema.org/InStock"
	}

	ld, err := json.Marshal(productLD{
		Context:     "https://schema.org/",
		Type:        "Product",
		Name:        p.Name,
		Image:       image,
		Description: p.Description,
		SKU:         p.ID,
		Offers: offer{
			Type:          "Offer",
			URL:           canonical,
			PriceCurrency: "USD",
			Price:         p.Price.String(),
			Availability:  schemaAvailability,
		},
	})
	if err != nil {
		return ProductPage{}, err
	}

	return ProductPage{
		Title:          Title(p.Name),
		Description:    p.Description,
		Canonical:      canonical,
		Image:          image,
		Availability:   availability,
		StructuredData: string(ld),
	}, nil
}
