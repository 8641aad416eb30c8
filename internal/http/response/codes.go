package response

const (
	CodeOK         = 0
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeConflict   = 409
	CodeStockShort = 460
	CodeInternal   = 500
)
