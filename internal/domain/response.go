package domain

// Response é o envelope padrão das respostas da API:
// {"status": <code>, "statusText": <mensagem>, "data": <objeto>}.
// Nem todos os endpoints usam o envelope (alguns retornam o objeto cru,
// outros um {code, message} simples) — essa inconsistência faz parte do
// contrato público e é preservada.
type Response struct {
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Data       interface{} `json:"data"`
}

// NewResponse monta o envelope padrão. Data nil vira um objeto vazio,
// nunca null, para manter o formato do contrato.
func NewResponse(status int, statusText string, data interface{}) Response {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Response{
		Status:     status,
		StatusText: statusText,
		Data:       data,
	}
}

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"There is no such id in database"`
}
