package outbox

const mealPlanGeneratedSchema = `{
  "type": "object",
  "title": "MealPlanGenerated",
  "definitions": {
    "nutrients": {
      "type": "object",
      "properties": {
        "calories": {"type": "integer", "minimum": 0},
        "protein": {"type": "integer", "minimum": 0},
        "carbs": {"type": "integer", "minimum": 0},
        "fat": {"type": "integer", "minimum": 0}
      },
      "required": ["calories", "protein", "carbs", "fat"],
      "additionalProperties": false
    }
  },
  "properties": {
    "plan_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "meals": {"type": "integer", "minimum": 1},
    "total_nutrition": {"$ref": "#/definitions/nutrients"},
    "target": {"$ref": "#/definitions/nutrients"},
    "adjusted": {"type": "boolean"},
    "restrictions": {"type": "array", "items": {"type": "string"}},
    "generated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["plan_id", "tenant_id", "user_id", "date", "meals", "total_nutrition", "target", "adjusted", "restrictions", "generated_at"],
  "additionalProperties": false
}`
