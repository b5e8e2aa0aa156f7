package common

// AuthorizationScheme is the scheme expected in the Authorization header.
const AuthorizationScheme = "Bearer"

// PictureFormField is the multipart field carrying an employee picture.
const PictureFormField = "picture"
