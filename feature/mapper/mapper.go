package mapper

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"listing-sync/core/batch"
	"listing-sync/core/reconcile"
	"listing-sync/core/utils"
	"listing-sync/feature/listings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// GallerySize is the most images a single gallery field holds.
const GallerySize = 25

//go:embed schema.json
var schemaJSON []byte

// DefaultWaterfrontTerms mark a listing as waterfront when found in its remarks.
var DefaultWaterfrontTerms = []string{"waterfront", "beachfront", "water front", "beach front"}

// Image is a gallery entry.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Mapper turns listings into validated field sets.
type Mapper struct {
	schema     *jsonschema.Schema
	waterfront []string
}

// New compiles the field set schema. A nil or empty terms list selects
// DefaultWaterfrontTerms.
func New(waterfrontTerms ...string) (*Mapper, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("listing.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("listing.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	if len(waterfrontTerms) == 0 {
		waterfrontTerms = DefaultWaterfrontTerms
	}
	return &Mapper{schema: schema, waterfront: waterfrontTerms}, nil
}

// Key returns the listing key.
func (m *Mapper) Key(l listings.Listing) string {
	return l.ListingKey
}

// Map shapes l and validates the result.
func (m *Mapper) Map(l listings.Listing) (reconcile.FieldSet, error) {
	fields := m.Fields(l)
	if err := m.Validate(fields); err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.ListingKey, err)
	}
	return fields, nil
}

// Validate checks fields against the collection schema.
func (m *Mapper) Validate(fields reconcile.FieldSet) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	if err := m.schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid fields: %w", err)
	}
	return nil
}

// Fields shapes l without validating it.
func (m *Mapper) Fields(l listings.Listing) reconcile.FieldSet {
	photos := photosOf(l.Media)
	buckets := batch.Partition(photos, GallerySize)

	fields := reconcile.FieldSet{
		reconcile.DefaultKeyField: l.ListingKey,
		"listingid":               text(l.ListingID),
		reconcile.FieldName:       firstNonBlank(l.UnparsedAddress, l.ListingKey),
		reconcile.FieldSlug:       slugOf(l),
		"_archived":               false,
		"_draft":                  false,

		"agentdetails-name":         agentName(l.Agent),
		"agentdetails-office-name":  officeName(l.Agent),
		"agent2details-name":        agentName(l.CoAgent),
		"agent2details-office-name": officeName(l.CoAgent),
		"agent-data-full":           agentCard(l.Agent),
		"agent2-data-full":          agentCard(l.CoAgent),

		"address-streetaddress": text(l.UnparsedAddress),
		"address-city":          text(l.City),
		"address-communityname": text(l.SubdivisionName),
		"ownershiptype":         text(l.CommonInterest),
		"propertytype":          text(l.PropertySubType),
		"zoningtype":            text(l.Zoning),
		"publicremarks-2":       text(l.PublicRemarks),

		"building-fireplacepresent":     yesNo(l.FireplaceYN),
		"building-utilitywater":         list(l.WaterSource),
		"land-sewer":                    list(l.Sewer),
		"land-sizetotaltext":            lotSize(l),
		"building-bathroomtotal":        text(utils.IntString(l.BathroomsTotalInteger)),
		"building-bedroomstotal":        text(utils.IntString(l.BedroomsTotal)),
		"building-constructeddate":      text(utils.IntString(l.YearBuilt)),
		"building-appliances":           list(l.Appliances),
		"building-basementtype":         list(l.Basement),
		"building-exteriorfinish":       list(l.ExteriorFeatures),
		"building-flooringtype":         list(l.Flooring),
		"building-foundationtype":       list(l.FoundationDetails),
		"building-heatingtype":          list(l.Heating),
		"building-roofmaterial":         list(l.Roof),
		"building-constructionmaterial": list(l.ConstructionMaterials),
		"parkingspacetotal":             number(l.ParkingTotal),
		"priceint":                      round(l.ListPrice),
		"building-sizeinterior-int":     round(l.LivingArea),

		"images":    gallery(buckets, 0),
		"images2":   gallery(buckets, 1),
		"images3":   gallery(buckets, 2),
		"mainimage": mainImage(photos),
		"video":     videoURL(l.Media),

		"rooms-above-3":      roomsHTML(l.Rooms, listings.RoomLevelAbove),
		"rooms-mainlevel-3":  roomsHTML(l.Rooms, listings.RoomLevelMain),
		"rooms-lowerlevel-3": roomsHTML(l.Rooms, listings.RoomLevelLower),

		"waterfront": utils.ContainsAnyFold(l.PublicRemarks, m.waterfront...),
	}
	return fields
}

// photosOf returns the property photos in display order. Media without an
// order keep their feed position after the ordered ones.
func photosOf(media []listings.Media) []Image {
	sorted := slices.Clone(media)
	slices.SortStableFunc(sorted, func(a, b listings.Media) int {
		switch {
		case a.Order == nil && b.Order == nil:
			return 0
		case a.Order == nil:
			return 1
		case b.Order == nil:
			return -1
		}
		return *a.Order - *b.Order
	})

	photos := make([]Image, 0, len(sorted))
	for _, md := range sorted {
		if md.MediaCategory != listings.MediaPropertyPhoto || md.MediaURL == "" {
			continue
		}
		photos = append(photos, Image{URL: md.MediaURL, Alt: md.LongDescription})
	}
	return photos
}

// gallery returns bucket i. The first gallery is always present; later ones are
// null when there are not enough photos. Photos past images3 are dropped.
func gallery(buckets [][]Image, i int) any {
	if i < len(buckets) {
		return buckets[i]
	}
	if i == 0 {
		return []Image{}
	}
	return nil
}

func mainImage(photos []Image) any {
	if len(photos) == 0 {
		return nil
	}
	return photos[0]
}

func videoURL(media []listings.Media) any {
	for _, md := range media {
		if md.MediaCategory == listings.MediaVideoTour && md.MediaURL != "" {
			return md.MediaURL
		}
	}
	return nil
}

func lotSize(l listings.Listing) any {
	if l.LotSizeArea == nil || *l.LotSizeArea <= 0 || !strings.EqualFold(l.LotSizeUnits, "square feet") {
		return nil
	}
	return utils.FormatThousands(*l.LotSizeArea) + " sqft."
}

func agentName(m *listings.Member) any {
	if m == nil {
		return nil
	}
	return text(fullName(m))
}

func officeName(m *listings.Member) any {
	if m == nil || m.Office == nil {
		return nil
	}
	return text(m.Office.OfficeName)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// text maps blank strings to null.
func text(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func list(values []string) any {
	return text(utils.JoinNonEmpty(values, ", "))
}

func number(v *float64) any {
	if v == nil {
		return nil
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func round(v *float64) any {
	if v == nil {
		return nil
	}
	return int64(math.Round(*v))
}

// slugOf derives the slug from the address, falling back to the listing key
// when the address has nothing sluggable.
func slugOf(l listings.Listing) string {
	if slug := utils.Slugify(l.UnparsedAddress); slug != "" {
		return slug
	}
	return utils.Slugify(l.ListingKey)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
