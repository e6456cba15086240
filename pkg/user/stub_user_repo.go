package user

import "context"

type RepoStub struct {
	nextId int
	users  map[int]User
}

func NewStubUserRepo() *RepoStub {
	return &RepoStub{users: map[int]User{}}
}

func (s *RepoStub) CreateUser(ctx context.Context, user User) (int, error) {
	s.nextId++
	user.Id = s.nextId
	s.users[user.Id] = user
	return user.Id, nil
}

func (s *RepoStub) GetUser(ctx context.Context, id int) (User, error) {
	if user, exists := s.users[id]; exists {
		return user, nil
	}
	return User{}, ErrUserNotFound
}

func (s *RepoStub) GetUserByUid(ctx context.Context, uid string) (User, error) {
	for _, user := range s.users {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *RepoStub) GetAllUsers(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *RepoStub) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	for _, user := range s.users {
		if user.Username == username {
			return false, nil
		}
	}
	return true, nil
}

func (s *RepoStub) Cleanup() {
	s.users = map[int]User{}
	s.nextId = 0
}
