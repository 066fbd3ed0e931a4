package port

//go:generate mockery --name="Dialog|Speaker" --with-expecter --output=mocks --outpkg=mocks
