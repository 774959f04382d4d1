package listings

// FeedKind selects the DDF credential set.
type FeedKind string

const (
	// FeedMember is the brokerage's own listings.
	FeedMember FeedKind = "member"
	// FeedNational is the national shared pool.
	FeedNational FeedKind = "national"
)

// Media categories used by the field mapper.
const (
	MediaPropertyPhoto = "Property Photo"
	MediaVideoTour     = "Video Tour Website"
)

// Room levels used by the field mapper.
const (
	RoomLevelAbove = "Above"
	RoomLevelMain  = "Main level"
	RoomLevelLower = "Lower level"
)

// Listing is a DDF Property record with its resolved agents.
type Listing struct {
	ListingKey            string   `json:"ListingKey"`
	ListingID             string   `json:"ListingId"`
	ListAgentKey          string   `json:"ListAgentKey"`
	CoListAgentKey        string   `json:"CoListAgentKey"`
	PropertySubType       string   `json:"PropertySubType"`
	CommonInterest        string   `json:"CommonInterest"`
	Zoning                string   `json:"Zoning"`
	UnparsedAddress       string   `json:"UnparsedAddress"`
	City                  string   `json:"City"`
	SubdivisionName       string   `json:"SubdivisionName"`
	PublicRemarks         string   `json:"PublicRemarks"`
	ModificationTimestamp string   `json:"ModificationTimestamp"`
	ListPrice             *float64 `json:"ListPrice"`
	LivingArea            *float64 `json:"LivingArea"`
	LotSizeArea           *float64 `json:"LotSizeArea"`
	LotSizeUnits          string   `json:"LotSizeUnits"`
	BathroomsTotalInteger *int     `json:"BathroomsTotalInteger"`
	BedroomsTotal         *int     `json:"BedroomsTotal"`
	YearBuilt             *int     `json:"YearBuilt"`
	ParkingTotal          *float64 `json:"ParkingTotal"`
	FireplaceYN           bool     `json:"FireplaceYN"`
	WaterSource           []string `json:"WaterSource"`
	Sewer                 []string `json:"Sewer"`
	Appliances            []string `json:"Appliances"`
	Basement              []string `json:"Basement"`
	ExteriorFeatures      []string `json:"ExteriorFeatures"`
	Flooring              []string `json:"Flooring"`
	FoundationDetails     []string `json:"FoundationDetails"`
	Heating               []string `json:"Heating"`
	Roof                  []string `json:"Roof"`
	ConstructionMaterials []string `json:"ConstructionMaterials"`
	Rooms                 []Room   `json:"Rooms"`
	Media                 []Media  `json:"Media"`

	// Agent and CoAgent are resolved from ListAgentKey and CoListAgentKey.
	// A failed lookup leaves them nil.
	Agent   *Member `json:"-"`
	CoAgent *Member `json:"-"`
}

// Room is one room of a listing.
type Room struct {
	RoomType       string `json:"RoomType"`
	RoomLevel      string `json:"RoomLevel"`
	RoomDimensions string `json:"RoomDimensions"`
}

// Media is one photo, video or document attached to a listing.
type Media struct {
	MediaKey        string `json:"MediaKey"`
	MediaURL        string `json:"MediaURL"`
	MediaCategory   string `json:"MediaCategory"`
	LongDescription string `json:"LongDescription"`
	Order           *int   `json:"Order"`
}

// SocialMedia is a social link of a member.
type SocialMedia struct {
	SocialMediaURLOrID string `json:"SocialMediaUrlOrId"`
	SocialMediaType    string `json:"SocialMediaType"`
}

// Member is a DDF agent record with its resolved office.
type Member struct {
	MemberKey             string        `json:"MemberKey"`
	MemberFirstName       string        `json:"MemberFirstName"`
	MemberLastName        string        `json:"MemberLastName"`
	MemberOfficePhone     string        `json:"MemberOfficePhone"`
	OfficeKey             string        `json:"OfficeKey"`
	ModificationTimestamp string        `json:"ModificationTimestamp"`
	MemberSocialMedia     []SocialMedia `json:"MemberSocialMedia"`

	// Office is resolved from OfficeKey. A failed lookup leaves it nil.
	Office *Office `json:"-"`
}

// Office is a DDF brokerage office record.
type Office struct {
	OfficeKey             string `json:"OfficeKey"`
	OfficeName            string `json:"OfficeName"`
	OfficeAddress1        string `json:"OfficeAddress1"`
	OfficeAddress2        string `json:"OfficeAddress2"`
	OfficeCity            string `json:"OfficeCity"`
	OfficeStateOrProvince string `json:"OfficeStateOrProvince"`
	OfficePhone           string `json:"OfficePhone"`
	OfficeType            string `json:"OfficeType"`
	ModificationTimestamp string `json:"ModificationTimestamp"`
}

// propertyPage is one OData page of Property records.
type propertyPage struct {
	Count    *int      `json:"@odata.count"`
	NextLink string    `json:"@odata.nextLink"`
	Value    []Listing `json:"value"`
}
