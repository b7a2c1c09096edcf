// Package rebuild управляет жизненным циклом вокселей: разрушение,
// генерация новой формы и сборка вокселей в неё.
package rebuild

// Phase глобальная фаза мира, определяющая режим физики всех вокселей
type Phase int

const (
	Idle Phase = iota
	Exploding
	Rebuilding
)

// String возвращает строковое представление фазы
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Exploding:
		return "exploding"
	case Rebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// CanTransition разрешает только Idle→Exploding, Exploding→Rebuilding и Rebuilding→Idle
func (p Phase) CanTransition(to Phase) bool {
	switch p {
	case Idle:
		return to == Exploding
	case Exploding:
		return to == Rebuilding
	case Rebuilding:
		return to == Idle
	default:
		return false
	}
}
