package api

const holdSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["task_id", "payer_wallet_id", "payee_wallet_id", "amount"],
  "properties": {
    "task_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "payer_wallet_id": {"type": "string", "minLength": 1},
    "payee_wallet_id": {"type": "string", "minLength": 1},
    "amount": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]{1,4})?$"},
    "platform_fee_percentage": {"type": "string", "pattern": "^(0(\\.[0-9]+)?|1(\\.0+)?)$"}
  }
}`

const releaseSchema = holdSchema

const createWalletSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["user_id", "currency"],
  "properties": {
    "user_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "currency": {"type": "string", "enum": ["USD", "NGN", "GHS"]},
    "initial_balance": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]{1,4})?$"}
  }
}`
