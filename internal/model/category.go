package model

// Category is a named class of sensitive content.
type Category string

// Builtin detector categories. Custom categories from config are arbitrary
// additional Category values.
const (
	CategoryPersonalID         Category = "personalId"
	CategoryEmail              Category = "email"
	CategoryPhone              Category = "phone"
	CategoryPaymentCard        Category = "paymentCard"
	CategoryIPAddress          Category = "ipAddress"
	CategoryConfidentialMarker Category = "confidentialMarker"
	CategoryCredentialLike     Category = "credentialLike"
	CategorySourceCodeLike     Category = "sourceCodeLike"
	CategorySQLLike            Category = "sqlLike"
)

// BuiltinCategories lists every builtin detector in evaluation order.
var BuiltinCategories = []Category{
	CategoryPersonalID,
	CategoryEmail,
	CategoryPhone,
	CategoryPaymentCard,
	CategoryIPAddress,
	CategoryConfidentialMarker,
	CategoryCredentialLike,
	CategorySourceCodeLike,
	CategorySQLLike,
}

// PersonalDataCategories are the categories whose presence sets
// Analysis.HasPersonalData.
var PersonalDataCategories = map[Category]bool{
	CategoryPersonalID:  true,
	CategoryEmail:       true,
	CategoryPhone:       true,
	CategoryPaymentCard: true,
}

// SecretCategories are the categories whose presence sets Analysis.HasSecrets.
var SecretCategories = map[Category]bool{
	CategoryCredentialLike:     true,
	CategoryConfidentialMarker: true,
}
