package validation

import (
	"sync"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// Register installs the custom binding rules on gin's validator engine.
// It is safe to call more than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("txtype", transactionType)
	})
}

func transactionType(fl validator.FieldLevel) bool {
	_, err := metadata.NewTransactionType(fl.Field().String())
	return err == nil
}
