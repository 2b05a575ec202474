package usecase

// ReflectionUsecase records a planning agent's free-form reflection between
// search rounds. It performs no I/O; the acknowledgement is the whole
// contract, giving planners a deliberate serialization point.
type ReflectionUsecase struct{}

func NewReflectionUsecase() *ReflectionUsecase {
	return &ReflectionUsecase{}
}

func (u *ReflectionUsecase) Record(reflection string) string {
	return "Reflection recorded: " + reflection
}
