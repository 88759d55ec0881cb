//go:build !race

package bearer

func passwordHashCost() int {
	return BcryptCost
}
