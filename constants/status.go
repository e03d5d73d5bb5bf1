package constants

// Business setting names
const (
	SettingIgnoreRoomTypeCapacity = "allow_room_inv_minus_total"
	SettingUpdateOTAAvailability  = "update_ota_availability"
	SettingAvailabilityFormula    = "availability_formula"
	SettingBusinessDate           = "business_date"
)

// Request headers carrying the property context
const (
	HeaderPropertyID   = "X-Property-ID"
	HeaderBusinessDate = "X-Business-Date"
	HeaderBaseCurrency = "X-Base-Currency"
	HeaderRequestID    = "X-Request-ID"
)

// Gin context keys
const (
	ContextKeyProperty = "property"
	ContextKeyActor    = "actor"
	ContextKeyRole     = "actorRole"
	ContextKeyRequest  = "requestId"
)

const DateLayout = "2006-01-02"

// Redis cache keys, formatted with property id and lookup key
const (
	CacheKeySetting      = "pms:%s:setting:%s"
	CacheKeyExchangeRate = "pms:%s:rate:%s:%s"
)

// OTA queue retention
const (
	OTADepartureExtensionDays = 10
	OTARetentionDays          = 5
)

const DefaultBaseCurrency = "IDR"

// Longest date window accepted by range queries and OOO requests
const MaxDateWindowDays = 366

// Actor roles carried in the token
const (
	RoleGuest        = 0
	RoleSuperAdmin   = 1
	RoleAdmin        = 2
	RoleReceptionist = 3
)
